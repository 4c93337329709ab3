package config_test

import (
	"os"
	"testing"
	"time"

	"courier-dispatch/internal/config"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	old := pflag.CommandLine
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	t.Cleanup(func() {
		pflag.CommandLine = old
	})
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_PORT", "")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("FUEL_PRICE_PER_LITER", "")
	t.Setenv("BASE_DELIVERY_FEE", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("DISPATCH_OPERATION_TIMEOUT", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 8080, cfg.Port)

	require.Equal(t, "127.0.0.1", cfg.DB.Host)
	require.Equal(t, "5432", cfg.DB.Port)
	require.Equal(t, "dispatch", cfg.DB.User)
	require.Equal(t, "dispatch", cfg.DB.Pass)
	require.Equal(t, "dispatch_db", cfg.DB.Name)

	require.Equal(t, 2.5, cfg.Pricing.FuelPricePerLiter)
	require.Equal(t, 5.0, cfg.Pricing.BaseDeliveryFee)

	require.Empty(t, cfg.Kafka.Brokers)
	require.Equal(t, "delivery-events", cfg.Kafka.Topic)

	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, 3*time.Second, cfg.Dispatch.OperationTimeout)
	require.Equal(t, 256, cfg.Dispatch.BroadcastQueue)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("FUEL_PRICE_PER_LITER", "3.1")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DISPATCH_OPERATION_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "db.internal", cfg.DB.Host)
	require.Equal(t, 3.1, cfg.Pricing.FuelPricePerLiter)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, 5*time.Second, cfg.Dispatch.OperationTimeout)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 7, cfg.RateLimit.Burst)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	resetFlags(t)

	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestDB_DSN(t *testing.T) {
	db := config.DB{Host: "h", Port: "5433", User: "u", Pass: "p", Name: "n"}
	require.Equal(t, "postgres://u:p@h:5433/n?sslmode=disable", db.DSN())
}
