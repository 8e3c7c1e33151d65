// Package http exposes an Assistant over a JSON API, Server-Sent Events
// and a WebSocket chat.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxUploadBytes bounds a multipart upload; the largest document allowed is 10 MB.
const maxUploadBytes = 11 << 20

// Assistant is the conversation engine served over HTTP. *lendflow.Assistant satisfies it.
type Assistant interface {
	Start(ctx context.Context, customer string) (domain.Reply, error)
	Send(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Upload(ctx context.Context, sessionID string, docType domain.DocumentType, filename string, content []byte) (domain.UploadResult, error)
	Abandon(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Sessions(ctx context.Context) ([]string, error)
	History(ctx context.Context, sessionID string) ([]domain.LogEntry, error)
	OnChange(fn func(*domain.SessionDiff))
}

// Server holds the handlers' dependencies.
type Server struct {
	Assistant Assistant
	Streams   *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	origins []string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts a Prometheus handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCORSOrigins sets the allowed origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewHandler creates the HTTP handler and subscribes its event streams to a's changes.
func NewHandler(a Assistant, opts ...Option) http.Handler {
	s := &Server{
		Assistant: a,
		logger:    logging.NewNop(),
		origins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	a.OnChange(s.Streams.Publish)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors(s.origins))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.SendMessage)
			r.Post("/documents", s.UploadDocument)
			r.Get("/history", s.GetHistory)
		})
	})
	r.Get("/events", s.SubscribeEvents)
	r.Get("/ws/chat/{customer}", s.Chat)

	return otelhttp.NewHandler(r, "lendflow-http")
}

func cors(allowed []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && originAllowed(allowed, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

type createSessionRequest struct {
	Customer string `json:"customer"`
}

type createSessionResponse struct {
	SessionID string       `json:"session_id"`
	Reply     domain.Reply `json:"reply"`
}

type messageRequest struct {
	Content string `json:"content"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.Assistant.Start(r.Context(), body.Customer)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: reply.SessionID, Reply: reply})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Assistant.Sessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Assistant.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Assistant.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(runner.MaxInputSize())*2)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	content, err := runner.SanitizeInput(strings.TrimSpace(body.Content))
	if err != nil {
		s.logger.Warn("SendMessage: Input rejected", "err", err, "size", len(body.Content))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		return
	}

	reply, err := s.Assistant.Send(r.Context(), chi.URLParam(r, "id"), content)
	if err != nil {
		s.fail(w, "SendMessage", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// UploadDocument handles POST /sessions/{id}/documents?type=.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	docType := domain.DocumentType(r.URL.Query().Get("type"))
	if _, ok := domain.SpecFor(docType); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown document type %q", docType))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or oversized file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	result, err := s.Assistant.Upload(r.Context(), chi.URLParam(r, "id"), docType, header.Filename, content)
	if err != nil {
		s.fail(w, "UploadDocument", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetHistory handles GET /sessions/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Assistant.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetHistory", err)
		return
	}
	if entries == nil {
		entries = []domain.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.LogEntry{"history": entries})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lendflow-http",
		"version": strings.TrimSpace(lendflow.Version),
	})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownDocument), errors.Is(err, domain.ErrDocumentRejected),
		errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
