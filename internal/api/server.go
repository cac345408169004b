// Package api provides the HTTP server for the OptimaTime planning engine.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/optimatime/optimatime/internal/app/mutator"
	"github.com/optimatime/optimatime/internal/app/planner"
)

// Server is the OptimaTime HTTP API server.
type Server struct {
	planner        *planner.Service
	mutator        *mutator.Service
	metricsEnabled bool
}

// NewServer creates a new API server backed by the given planner and
// mutator services.
func NewServer(p *planner.Service, m *mutator.Service) *Server {
	return &Server{planner: p, mutator: m}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(trustedUserMiddleware)
		r.Post("/plan", s.handleGeneratePlan)
		r.Get("/plan", s.handleGetPlan)
		r.Get("/calendar", s.handleCalendar)
		r.Patch("/item/{id}", s.handleMoveItem)
		r.Delete("/item/{id}", s.handleDeleteItem)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-OptimaTime-User, X-OptimaTime-Profile")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
