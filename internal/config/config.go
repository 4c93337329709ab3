package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Auth stores bearer-token settings shared by REST and the socket endpoint.
type Auth struct {
	JWTSecret string
}

// Pricing stores cost estimation parameters.
type Pricing struct {
	FuelPricePerLiter float64
	BaseDeliveryFee   float64
}

// Kafka stores the optional delivery-events sink settings. The sink is
// disabled when Brokers is empty.
type Kafka struct {
	Brokers []string
	Topic   string
}

// RateLimit stores per-IP HTTP rate limiting settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Dispatch stores dispatch-core settings.
type Dispatch struct {
	OperationTimeout time.Duration
	BroadcastQueue   int
}

// Pprof stores the side pprof listener settings. Disabled when Addr is empty.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Config stores all service settings.
type Config struct {
	Port      int
	DB        DB
	Auth      Auth
	Pricing   Pricing
	Kafka     Kafka
	RateLimit RateLimit
	Dispatch  Dispatch
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      envInt("PORT", DefaultPort()),
		DB:        loadDB(),
		Auth:      Auth{JWTSecret: envStr("JWT_SECRET", "")},
		Pricing:   loadPricing(),
		Kafka:     loadKafka(),
		RateLimit: loadRateLimit(),
		Dispatch:  loadDispatch(),
		Pprof: Pprof{
			Addr: envStr("PPROF_ADDR", ""),
			User: envStr("PPROF_USER", ""),
			Pass: envStr("PPROF_PASS", ""),
		},
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.StringVar(&cfg.Auth.JWTSecret, "jwt-secret", cfg.Auth.JWTSecret, "bearer token signing secret")
	pflag.Parse()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func loadDB() DB {
	db := DefaultDB()
	db.Host = envStr("POSTGRES_HOST", db.Host)
	db.Port = envStr("POSTGRES_PORT", db.Port)
	db.User = envStr("POSTGRES_USER", db.User)
	db.Pass = envStr("POSTGRES_PASSWORD", db.Pass)
	db.Name = envStr("POSTGRES_DB", db.Name)
	return db
}

func loadPricing() Pricing {
	p := DefaultPricing()
	p.FuelPricePerLiter = envFloat("FUEL_PRICE_PER_LITER", p.FuelPricePerLiter)
	p.BaseDeliveryFee = envFloat("BASE_DELIVERY_FEE", p.BaseDeliveryFee)
	return p
}

func loadKafka() Kafka {
	k := Kafka{Topic: envStr("KAFKA_EVENTS_TOPIC", defaultKafkaTopic)}
	if v := envStr("KAFKA_BROKERS", ""); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				k.Brokers = append(k.Brokers, b)
			}
		}
	}
	return k
}

func loadRateLimit() RateLimit {
	rl := DefaultRateLimit()
	rl.Enabled = envBool("RATE_LIMIT_ENABLED", rl.Enabled)
	rl.Rate = envFloat("RATE_LIMIT_RATE", rl.Rate)
	rl.Burst = envInt("RATE_LIMIT_BURST", rl.Burst)
	rl.TTL = envDuration("RATE_LIMIT_TTL", rl.TTL)
	rl.MaxBuckets = envInt("RATE_LIMIT_MAX_BUCKETS", rl.MaxBuckets)
	return rl
}

func loadDispatch() Dispatch {
	d := DefaultDispatch()
	d.OperationTimeout = envDuration("DISPATCH_OPERATION_TIMEOUT", d.OperationTimeout)
	d.BroadcastQueue = envInt("DISPATCH_BROADCAST_QUEUE", d.BroadcastQueue)
	return d
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
