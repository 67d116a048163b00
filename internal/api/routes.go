package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router and mounts every endpoint.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://engage.ignite.io", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(api chi.Router) {
		api.Post("/events", h.ProcessEvent)
		api.Get("/metrics", h.Metrics)

		api.Route("/schedules", func(sr chi.Router) {
			sr.Post("/", h.CreateSchedule)
			sr.Post("/bulk", h.BulkSchedule)
			sr.Get("/{scheduleID}", h.GetSchedule)
			sr.Put("/{scheduleID}", h.UpdateSchedule)
			sr.Post("/{scheduleID}/cancel", h.CancelSchedule)
		})

		api.Route("/brands/{brandID}", func(br chi.Router) {
			br.Get("/schedules", h.ListSchedules)
			br.Get("/calendar", h.CalendarView)
			br.Get("/optimal-times", h.OptimalTimes)
		})
	})

	return r
}
