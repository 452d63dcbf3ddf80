// Package http assembles the service's HTTP surface: middleware chain,
// health and metrics endpoints, and the registry routes.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bhoomi/internal/registry/handler"
	"bhoomi/pkg/platform/middleware"
)

// NewRouter builds the chi router with the standard middleware chain. The
// registry routes sit behind authentication; health and metrics do not.
func NewRouter(registry *handler.Handler, validator middleware.JWTValidator, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		registry.Register(r)
	})
	return r
}
