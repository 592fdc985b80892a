package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/rsms-admin/internal/transport/middleware"
	"github.com/frahmantamala/rsms-admin/internal/transport/swagger"
	"github.com/frahmantamala/rsms-admin/internal/user"
)

type RouterConfig struct {
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	// OpenAPI is the validated document served at /openapi.yml. Nil hides
	// the docs routes.
	OpenAPI []byte
}

func RegisterAllRoutes(router *chi.Mux, cfg RouterConfig, health *HealthHandler, userHandler *user.Handler, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics)
		router.Handle(cfg.MetricsPath, promhttp.Handler())
	}

	if cfg.OpenAPI != nil {
		// Serve OpenAPI spec at root (outside API prefix)
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(cfg.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.healthCheckHandler)
		r.Get("/ping", health.pingHandler)

		if userHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(middleware.LoggingMiddleware(logger))
				pr.Use(middleware.BearerSession)
				pr.Route("/users", userHandler.Routes)
			})
		}
	})
}
