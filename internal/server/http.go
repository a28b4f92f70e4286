package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayia-hosni/study-sync-backend/internal/dispatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxOccurrenceBody caps an occurrence request body.
const maxOccurrenceBody = 1 << 20

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPOptions configures the HTTP handler.
type HTTPOptions struct {
	Dispatcher *dispatch.Dispatcher
	// Gatherer is served on GET /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Ready backs GET /v1/ready. Nil always reports ready.
	Ready     Pinger
	AuthToken string
	Logger    *slog.Logger
}

type httpServer struct {
	dispatcher *dispatch.Dispatcher
	ready      Pinger
	logger     *slog.Logger
}

// NewHTTPHandler returns an http.Handler with all routes registered.
// When AuthToken is non-empty, occurrence ingress requires a valid
// Authorization: Bearer <token> header.
func NewHTTPHandler(opts HTTPOptions) http.Handler {
	s := &httpServer{dispatcher: opts.Dispatcher, ready: opts.Ready, logger: opts.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("POST /v1/occurrences/{kind}", otelhttp.NewHandler(http.HandlerFunc(s.handleOccurrence), "occurrence.ingress"))
	return AuthMiddleware(opts.AuthToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *httpServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady handles GET /v1/ready.
func (s *httpServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleOccurrence handles POST /v1/occurrences/{kind}.
func (s *httpServer) handleOccurrence(w http.ResponseWriter, r *http.Request) {
	kind := dispatch.Kind(r.PathValue("kind"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOccurrenceBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	err = s.dispatcher.RaiseJSON(r.Context(), kind, body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "kind": string(kind)})
	case errors.Is(err, dispatch.ErrUnknownKind), errors.Is(err, dispatch.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusServiceUnavailable, "occurrence not accepted")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
