package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/http/handler"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/infrastructure/auth"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SyncHandler     *handler.SyncHandler
	ConfigHandler   *handler.ConfigHandler
	DuoHandler      *handler.DuoHandler
	HealthHandler   *handler.HealthHandler
	JWTManager      *auth.JWTManager
	SchedulerSecret string
	IPRateLimiter   *middleware.IPRateLimiter
	Logger          zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.IPRateLimiter != nil {
		r.Use(cfg.IPRateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Batch endpoint authenticates the scheduler, not a user.
		r.With(middleware.SchedulerAuth(cfg.SchedulerSecret)).
			Post("/sync/batch", cfg.SyncHandler.TriggerBatch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))

			r.Route("/sync", func(r chi.Router) {
				r.Post("/", cfg.SyncHandler.Trigger)
				r.Get("/history", cfg.SyncHandler.ListHistory)
				r.Get("/history/{id}", cfg.SyncHandler.GetHistory)
			})

			r.Route("/config", func(r chi.Router) {
				r.Get("/", cfg.ConfigHandler.Get)
				r.Put("/", cfg.ConfigHandler.Save)
				r.Post("/enable", cfg.ConfigHandler.Enable)
			})

			r.Route("/duo", func(r chi.Router) {
				r.Get("/", cfg.DuoHandler.Status)
				r.Post("/invite", cfg.DuoHandler.CreateInvite)
				r.Post("/accept", cfg.DuoHandler.AcceptInvite)
				r.Post("/unlink", cfg.DuoHandler.Unlink)
			})
		})
	})

	return r
}
