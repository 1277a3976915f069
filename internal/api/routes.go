package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured.
// eventsPerMinute bounds POST /events per client IP; zero disables it.
func NewRouter(h *Handler, eventsPerMinute int) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Get("/recipes", h.ListRecipes)
			r.Get("/recommendations", h.Recommendations)
			r.Get("/patterns", h.Patterns)
			r.With(EventRateLimit(eventsPerMinute)).Post("/events", h.RecordEvent)
			r.Delete("/behavior", h.ResetBehavior)
		})
	})

	return r
}
