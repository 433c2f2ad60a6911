/*
server.go - HTTP router and middleware configuration

ROUTER: chi, with the standard middleware stack (RequestID, Recoverer) plus
zerolog request logging and CORS for browser clients.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID", "X-Actor-HR"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/leaves", func(r chi.Router) {
			r.Post("/validate", h.Validate)
			r.Post("/", h.CreateLeave)
			r.Put("/{id}", h.EditLeave)
			r.Delete("/{id}", h.DeleteLeave)
			r.Post("/{id}/request", h.PromoteLeave)
			r.Post("/{id}/accept", h.AcceptLeave)
			r.Post("/{id}/reject", h.RejectLeave)
			r.Post("/{id}/cancel", h.CancelLeave)
		})

		r.Route("/overtime", func(r chi.Router) {
			r.Post("/", h.CreateOvertime)
			r.Delete("/{id}", h.DeleteOvertime)
			r.Post("/{id}/request", h.PromoteOvertime)
			r.Post("/{id}/accept", h.AcceptOvertime)
			r.Post("/{id}/reject", h.RejectOvertime)
			r.Post("/{id}/cancel", h.CancelOvertime)
		})

		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/summary", h.BalanceSummary)
			r.Get("/presence/{year}/{month}", h.MonthlyPresence)
			r.Get("/leaves", h.ListLeaves)
			r.Post("/grants", h.CreateGrant)
		})

		r.Get("/types", h.ListTypes)
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
