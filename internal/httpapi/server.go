// Package httpapi exposes the training session engine over HTTP.
//
// The surface is a small JSON API: session lifecycle operations under
// /sessions, history and dashboard reads per client, and the ambient
// /healthz, /readyz, and /metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fonotreino/fonotreino/internal/content"
	"github.com/fonotreino/fonotreino/internal/health"
	"github.com/fonotreino/fonotreino/internal/observe"
	"github.com/fonotreino/fonotreino/internal/session"
)

// defaultMaxAudioBytes bounds the multipart upload size for audio attempts.
// Attempts are single short phrases, so 10 MiB leaves generous headroom.
const defaultMaxAudioBytes = 10 << 20

// SessionService is the part of the session orchestrator the API depends on.
type SessionService interface {
	Start(ctx context.Context, req session.StartRequest) ([]session.Message, error)
	SubmitAudio(ctx context.Context, sessionID string, audio []byte, useHolistic bool) ([]session.Message, error)
	GetState(ctx context.Context, sessionID string) (session.Message, error)
	Cancel(ctx context.Context, sessionID string) (session.Message, error)
	History(ctx context.Context, clientID string) ([]session.HistoryEntry, error)
}

// DashboardService computes per-client aggregate statistics.
type DashboardService interface {
	Dashboard(ctx context.Context, clientID string) (*session.DashboardStats, error)
}

// Server wires the session engine into an HTTP router.
type Server struct {
	sessions  SessionService
	dashboard DashboardService
	health    *health.Handler
	metrics   *observe.Metrics
	log       *slog.Logger

	maxAudioBytes int64
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for request handling failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxAudioBytes overrides the multipart upload limit.
func WithMaxAudioBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxAudioBytes = n
		}
	}
}

// New creates a [Server]. The health handler may carry checkers for the
// store and providers; metrics must be non-nil (use [observe.DefaultMetrics]).
func New(sessions SessionService, dashboard DashboardService, h *health.Handler, m *observe.Metrics, opts ...Option) *Server {
	s := &Server{
		sessions:      sessions,
		dashboard:     dashboard,
		health:        h,
		metrics:       m,
		log:           slog.Default(),
		maxAudioBytes: defaultMaxAudioBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(observe.Middleware(s.metrics))

	s.health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/sessions/start", s.handleStart)
	r.Post("/sessions/{id}/audio", s.handleSubmitAudio)
	r.Get("/sessions/{id}/state", s.handleGetState)
	r.Post("/sessions/{id}/cancel", s.handleCancel)
	r.Get("/sessions/history/client/{clientId}", s.handleHistory)
	r.Get("/sessions/dashboard/{clientId}", s.handleDashboard)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondServiceError translates the session error taxonomy into HTTP status
// codes. Unrecognised errors become opaque 500s; the detail goes to the log,
// not the client.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, session.ErrInvalidState):
		respondError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, session.ErrConflict):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, content.ErrGeneration):
		respondError(w, http.StatusBadGateway, "generation_failed", err.Error())
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

var errEmptyBody = errors.New("httpapi: empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
