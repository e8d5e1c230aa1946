package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/refimage"
	"veo-prompt-studio/internal/session"
)

const maxUploadBytes = 25 << 20

// Inspirer supplies a generated main description.
type Inspirer interface {
	Inspire(ctx context.Context) (string, error)
}

type Options struct {
	Sessions       *session.Store
	Inspirer       Inspirer
	Images         refimage.Options
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

type Server struct {
	sessions       *session.Store
	inspirer       Inspirer
	images         refimage.Options
	requestTimeout time.Duration
	logger         *slog.Logger
}

type apiError struct {
	Error string `json:"error"`
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	return &Server{
		sessions:       opts.Sessions,
		inspirer:       opts.Inspirer,
		images:         opts.Images,
		requestTimeout: timeout,
		logger:         logger,
	}
}

// RegisterRoutes mounts the API under /api on r.
func (s *Server) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/options", s.handleOptions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/fields/{key}", s.handleSetField).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/template", s.handleTemplate).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{id}/characters", s.handleAddCharacter).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/characters/{cid}", s.handleUpdateCharacter).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}/characters/{cid}", s.handleRemoveCharacter).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/characters/{cid}/images/{slot}", s.handleUploadImage).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/characters/{cid}/images/{slot}", s.handleClearImage).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{id}/dialogues", s.handleAddDialogue).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/dialogues/{did}", s.handleUpdateDialogue).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}/dialogues/{did}", s.handleRemoveDialogue).Methods(http.MethodDelete)

	api.HandleFunc("/sessions/{id}/render", s.handleRender).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/export", s.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/inspire", s.handleInspire).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/events", s.handleEvents).Methods(http.MethodGet)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Lookup(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("permintaan tidak valid", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, apiError{Error: apperr.UserMessage(err)})
}

// WithLogging logs one line per request.
func WithLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Info("http", "method", r.Method, "path", r.URL.Path, "dur_ms", time.Since(start).Milliseconds())
	})
}

func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "broken pipe")
}
