package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/city-insight-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBundleBytes caps the accepted request body; feature bundles are a few
// kilobytes at most.
const maxBundleBytes = 1 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// InsightEvaluator turns one feature bundle into an insight result.
type InsightEvaluator interface {
	Evaluate(ctx context.Context, bundle domain.FeatureBundle) domain.InsightResult
}

// Server exposes the evaluate endpoint plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	evaluator  InsightEvaluator
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// insight evaluation route.
func NewServer(addr string, evaluator InsightEvaluator, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		evaluator: evaluator,
		logger:    logger,
	}

	mux.HandleFunc("POST /v1/cities/{slug}/insights", s.handleEvaluate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleEvaluate decodes a feature bundle, evaluates it, and returns the
// insight result. The path slug wins over any slug in the body so one city's
// URL cannot return another city's result. Evaluation itself cannot fail —
// bad data degrades, it does not error.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var bundle domain.FeatureBundle
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBundleBytes))
	if err := dec.Decode(&bundle); err != nil {
		s.logger.Warn("invalid bundle payload", "slug", slug, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid feature bundle"})
		return
	}
	bundle.City.Slug = slug

	result := s.evaluator.Evaluate(r.Context(), bundle)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
