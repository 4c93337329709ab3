package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"courier-dispatch/internal/config"
	"courier-dispatch/internal/gateway/vehicles"
	"courier-dispatch/internal/http/handlers"
	"courier-dispatch/internal/http/middleware"
	"courier-dispatch/internal/http/pprofserver"
	"courier-dispatch/internal/http/router"
	"courier-dispatch/internal/logx"
	"courier-dispatch/internal/notify"
	"courier-dispatch/internal/repository"
	"courier-dispatch/internal/service/assignment"
	"courier-dispatch/internal/service/cost"
	"courier-dispatch/internal/service/dispatch"
	"courier-dispatch/internal/service/matching"
	"courier-dispatch/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect: connectDbWithRetry,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerDomainServices(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		config.Load,
		NewLogger,
		provideMetrics,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

type catalogIn struct {
	dig.In

	Repo    *repository.VehicleRepo
	Logger  logx.Logger
	Retries prometheus.Counter `name:"catalog_retries_total"`
}

type hubIn struct {
	dig.In

	Logger  logx.Logger
	Dropped prometheus.Counter `name:"broadcast_dropped_total"`
}

type sinkIn struct {
	dig.In

	Cfg    *config.Config
	Logger logx.Logger
	Errs   prometheus.Counter `name:"event_sink_errors_total"`
}

type coordinatorIn struct {
	dig.In

	Deliveries *repository.DeliveryRepo
	Fanout     *notify.Fanout
	Conflicts  prometheus.Counter `name:"assign_conflicts_total"`
	Cfg        *config.Config
	Logger     logx.Logger
}

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		repository.NewDeliveryRepo,
		repository.NewCourierRepo,
		repository.NewVehicleRepo,
		repository.NewIdentityRepo,
		func(cfg *config.Config) *cost.Estimator {
			return cost.NewEstimator(cfg.Pricing)
		},
		func(in catalogIn) vehicles.Catalog {
			return vehicles.NewRetryingCatalog(in.Repo, in.Logger, in.Retries, vehicles.RetryConfig{
				MaxAttempts: 3,
				BaseDelay:   100 * time.Millisecond,
				MaxDelay:    time.Second,
			})
		},
		func(in hubIn) *notify.Hub {
			return notify.NewHub(in.Logger, in.Dropped)
		},
		func(cfg *config.Config, logger logx.Logger) *notify.Dispatcher {
			return notify.NewDispatcher(cfg.Dispatch.BroadcastQueue, logger)
		},
		func(in sinkIn) (*kafka.Sink, error) {
			return kafka.NewSink(in.Cfg.Kafka.Brokers, in.Cfg.Kafka.Topic, in.Errs, in.Logger)
		},
		func(hub *notify.Hub, sink *kafka.Sink) *notify.Fanout {
			if sink == nil {
				return notify.NewFanout(hub)
			}
			return notify.NewFanout(hub, sink)
		},
		func(d *repository.DeliveryRepo, c *repository.CourierRepo, cfg *config.Config) *matching.Engine {
			return matching.NewEngine(d, c, cfg.Dispatch.OperationTimeout)
		},
		func(in coordinatorIn) *assignment.Coordinator {
			return assignment.NewCoordinator(in.Deliveries, in.Fanout, in.Conflicts, in.Cfg.Dispatch.OperationTimeout, in.Logger)
		},
		func(
			deliveries *repository.DeliveryRepo,
			catalog vehicles.Catalog,
			estimator *cost.Estimator,
			fanout *notify.Fanout,
			tasks *notify.Dispatcher,
			cfg *config.Config,
			logger logx.Logger,
		) *dispatch.Service {
			return dispatch.NewService(deliveries, catalog, estimator, fanout, tasks, cfg.Dispatch.OperationTimeout, logger)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		func(cfg *config.Config, logger logx.Logger) *middleware.Auth {
			return middleware.NewAuth(cfg.Auth.JWTSecret, logger)
		},
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		handlers.New,
		handlers.NewDispatchUsecase,
		handlers.NewAssignmentUsecase,
		handlers.NewMatchingUsecase,
		handlers.NewCourierDirectory,
		handlers.NewIdentityDirectory,
		handlers.NewDeliveryHandler,
		func(hub *notify.Hub, auth *middleware.Auth, logger logx.Logger) *handlers.WSHandler {
			return handlers.NewWSHandler(hub, auth, logger)
		},
		router.New,
		serverProvider,
		providePprofServer,
	)
}

type pprofServerOut struct {
	dig.Out

	Server *http.Server `name:"pprof_server"`
}

// providePprofServer builds the side pprof listener. Disabled when Addr is
// empty, in which case the named dependency resolves to nil.
func providePprofServer(cfg *config.Config) pprofServerOut {
	if cfg.Pprof.Addr == "" {
		return pprofServerOut{}
	}
	return pprofServerOut{Server: &http.Server{
		Addr:              cfg.Pprof.Addr,
		Handler:           pprofserver.Handler(pprofserver.Config{User: cfg.Pprof.User, Pass: cfg.Pprof.Pass}),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}
