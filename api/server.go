/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for the web client
  5. RequireUser: Resolves the opaque user key (see auth.go)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Email"},
		AllowCredentials: true,
	}))

	// API routes, all scoped to the authenticated user
	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/records", func(r chi.Router) {
			r.Get("/", h.ListRecords)
			r.Post("/", h.AddRecord)
			r.Post("/preview", h.PreviewRecord)
			r.Delete("/{id}", h.RemoveRecord)
		})

		r.Route("/cycles", func(r chi.Router) {
			r.Get("/", h.ListCycleSummaries)
			r.Get("/{key}/stats", h.GetCycleStats)
			r.Get("/{key}/calendar", h.GetCycleCalendar)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Patch("/", h.UpdateSettings)
			r.Patch("/cycles/{key}", h.UpdateCycleOverride)
			r.Put("/years/{year}", h.SetYearlySalary)
			r.Delete("/years/{year}", h.ClearYearlySalary)
		})

		r.Get("/sync/status", h.GetSyncStatus)
	})

	return r
}
