package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"courier-dispatch/internal/domain"
	"courier-dispatch/internal/http/handlers"
	"courier-dispatch/internal/http/middleware"
	"courier-dispatch/internal/http/middleware/ratelimit"
	"courier-dispatch/internal/logx"
)

// New constructs the chi handler with base middleware and all routes.
func New(logger logx.Logger, base *handlers.Handlers, deliveries *handlers.DeliveryHandler, ws *handlers.WSHandler, auth *middleware.Auth, limiter *ratelimit.Middleware) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(15 * time.Second))
	r.Use(middleware.Observability(logger))
	if limiter != nil {
		r.Use(limiter.Handler())
	}

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", ws.Serve)

	r.Route("/deliveries", func(r chi.Router) {
		r.Use(auth.Wrap)

		r.With(auth.RequireRole(domain.RoleCustomer)).Post("/", deliveries.Create)
		r.Get("/", deliveries.List)

		r.Route("/driver", func(r chi.Router) {
			r.Use(auth.RequireRole(domain.RoleCourier))
			r.Get("/available", deliveries.Available)
			r.Get("/active", deliveries.Active)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", deliveries.GetByID)
			r.With(auth.RequireRole(domain.RoleCourier, domain.RoleAdmin)).Get("/candidates", deliveries.Candidates)
			r.Post("/calculate-cost", deliveries.CalculateCost)

			r.With(auth.RequireRole(domain.RoleCourier)).Post("/accept", deliveries.Accept)
			r.With(auth.RequireRole(domain.RoleCourier)).Post("/start", deliveries.Start)
			r.With(auth.RequireRole(domain.RoleCourier)).Post("/complete", deliveries.Complete)
			r.With(auth.RequireRole(domain.RoleCustomer, domain.RoleAdmin)).Post("/cancel", deliveries.Cancel)
		})
	})

	r.NotFound(base.NotFound)

	return r
}
