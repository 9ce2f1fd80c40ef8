package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts every endpoint on a chi router
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/plan", h.PlanTrip)
		r.Post("/tasks", h.GenerateTasks)
		r.Post("/tasks/check", h.CheckTasks)
		r.Post("/confidence", h.TransferConfidence)

		r.Get("/session", h.GetSession)
		r.Post("/session/gps", h.ReportPosition)
		r.Delete("/session/gps", h.StopTracking)
		r.Post("/session/destination", h.SetDestination)
		r.Delete("/session/destination", h.ClearDestination)

		r.Get("/supervisor", h.GetSupervisorState)
		r.Delete("/supervisor/logs", h.ClearSupervisorLogs)
		r.Get("/supervisor/events", h.StreamSupervisorEvents)
	})

	return r
}
