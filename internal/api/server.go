// Package api provides the questkeep HTTP server.
// It exposes the JSON API consumed by the web client: cookie-session auth,
// quest and item CRUD, and the points/rewards operations.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/questkeep/questkeep/internal/app/rewards"
	"github.com/questkeep/questkeep/internal/infra/observability"
	"github.com/questkeep/questkeep/internal/infra/sqlite"
)

// Server is the questkeep HTTP API server.
type Server struct {
	db             *sqlite.DB
	engine         *rewards.Engine
	cookieName     string
	sessionTTL     time.Duration
	corsOrigin     string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(db *sqlite.DB, engine *rewards.Engine) *Server {
	return &Server{
		db:         db,
		engine:     engine,
		cookieName: "qid",
		sessionTTL: 7 * 24 * time.Hour,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetSessionPolicy overrides the session cookie name and lifetime.
func (s *Server) SetSessionPolicy(cookieName string, ttl time.Duration) {
	if cookieName != "" {
		s.cookieName = cookieName
	}
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// SetCORSOrigin allows the given origin to make credentialed requests
// (the dev frontend runs on a different port).
func (s *Server) SetCORSOrigin(origin string) { s.corsOrigin = origin }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/me", s.handleMe)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/quests", s.handleListQuests)
			r.Post("/quests", s.handleCreateQuest)
			r.Delete("/quests/{id}", s.handleDeleteQuest)
			r.Patch("/quests/{id}", s.handleToggleQuest)

			r.Get("/items", s.handleListItems)
			r.Post("/items", s.handleCreateItem)
			r.Delete("/items/{id}", s.handleDeleteItem)
			r.Post("/items/{id}/use", s.handleUseItem)
			r.Post("/items/{id}/buy", s.handleBuyItem)

			r.Get("/user/points", s.handlePoints)
		})
	})

	return r
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response in the flat shape the web client
// expects: {"error": "message"}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware allows credentialed requests from the configured frontend
// origin. Without a configured origin no CORS headers are emitted.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records every handled request.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		observability.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}
