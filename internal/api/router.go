// Package api wires the operational HTTP endpoints.
package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dkostiuk/clipferry/internal/api/handler"
	mw "github.com/dkostiuk/clipferry/internal/api/middleware"
)

// NewRouter creates the HTTP router. The endpoints are operator-facing and
// carry no secrets, so there is no authentication layer.
func NewRouter(healthHandler *handler.HealthHandler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", healthHandler.Live)
	r.Get("/stats", healthHandler.Stats)

	return r
}
