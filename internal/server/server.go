// Package server exposes setup, detection, status and download over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/item-dedupe/internal/dedupe"
	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/internal/report"
	"github.com/sells-group/item-dedupe/internal/runs"
)

// Authenticator performs the initial grant exchange.
type Authenticator interface {
	Setup(ctx context.Context, clientID, clientSecret, grantCode string) (*model.Credential, error)
}

// Runner executes one detection run.
type Runner interface {
	Run(ctx context.Context, orgID, runID string) (*dedupe.Outcome, error)
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Auth      Authenticator
	Runner    Runner
	Registry  *runs.Registry
	Artifacts *report.Artifacts
	// DefaultOrgID is used when a detect request names no organization.
	DefaultOrgID string
	TokenFile    string
}

// Server handles the HTTP API.
type Server struct {
	deps Deps
	now  func() time.Time
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{deps: deps, now: time.Now}
}

// Handler returns the routed handler with CORS allowed for origins.
func (s *Server) Handler(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/setup", s.handleSetup)
		r.Post("/setup-zoho", s.handleSetup)
		r.Post("/detect", s.handleDetect)
		r.Post("/detect-duplicates", s.handleDetect)
		r.Get("/status/{runID}", s.handleStatus)
		r.Get("/download/{filename}", s.handleDownload)
		r.Get("/health", s.handleHealth)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.deps.Registry.Get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
