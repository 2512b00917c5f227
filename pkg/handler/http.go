package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/foomo/guestbook/pkg/auth"
	"github.com/foomo/guestbook/pkg/metrics"
	"github.com/foomo/guestbook/pkg/note"
	"github.com/foomo/guestbook/pkg/repo"
	"github.com/foomo/guestbook/requests"
	"github.com/foomo/guestbook/responses"
)

type (
	HTTP struct {
		l              *zap.Logger
		repo           *repo.Repo
		gate           *auth.Gate
		basePath       string
		allowedOrigins []string
	}
	HTTPOption func(*HTTP)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewHTTP returns the handler exposing the guestbook API
func NewHTTP(l *zap.Logger, repo *repo.Repo, gate *auth.Gate, opts ...HTTPOption) http.Handler {
	inst := &HTTP{
		l:    l.Named("http"),
		repo: repo,
		gate: gate,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst.router()
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithBasePath mounts the API below the given path - useful behind a proxy
func WithBasePath(v string) HTTPOption {
	return func(o *HTTP) {
		o.basePath = strings.TrimSuffix(v, "/")
	}
}

// WithAllowedOrigins enables CORS for the given origins
func WithAllowedOrigins(v ...string) HTTPOption {
	return func(o *HTTP) {
		o.allowedOrigins = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *HTTP) router() http.Handler {
	r := chi.NewRouter()

	if len(h.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}

	r.Route(h.basePath+"/api", func(r chi.Router) {
		r.Post("/auth", h.instrument("authenticate", h.authenticate))
		r.Get("/auth", h.instrument("verifyToken", h.verifyToken))
		r.Get("/notes", h.instrument("listNotes", h.listNotes))
		r.Post("/notes", h.instrument("createNote", h.createNote))
		r.Delete("/notes", h.instrument("deleteNote", h.deleteNote))
	})

	return r
}

// instrument wraps a handler with per-request counters and durations
func (h *HTTP) instrument(name string, next func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := strconv.Itoa(next(w, r))
		metrics.ServiceRequestCounter.WithLabelValues(name, status).Inc()
		metrics.ServiceRequestDuration.WithLabelValues(name, status).Observe(time.Since(start).Seconds())
	}
}

func (h *HTTP) listNotes(w http.ResponseWriter, r *http.Request) int {
	notes, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.l.Error("failed to list notes", zap.Error(err))
		return h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
	return h.writeJSON(w, http.StatusOK, notes)
}

func (h *HTTP) createNote(w http.ResponseWriter, r *http.Request) int {
	var payload requests.Note
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}

	result, err := h.repo.Create(r.Context(), payload, r.UserAgent())
	switch {
	case note.IsValidation(err):
		return h.writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.l.Error("failed to create note", zap.Error(err))
		return h.writeError(w, http.StatusInternalServerError, "Internal server error")
	case result.Persisted:
		return h.writeJSON(w, http.StatusCreated, responses.NoteCreated{OK: true, ID: result.ID})
	default:
		return h.writeJSON(w, http.StatusAccepted, responses.NoteAccepted{OK: true, Persisted: false})
	}
}

func (h *HTTP) deleteNote(w http.ResponseWriter, r *http.Request) int {
	var payload requests.NoteDelete
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}

	result, err := h.repo.DeleteByCreatedAt(r.Context(), payload.CreatedAt)
	switch {
	case errors.Is(err, repo.ErrCreatedAtRequired):
		return h.writeError(w, http.StatusBadRequest, "createdAt is required")
	case errors.Is(err, repo.ErrNotFound):
		return h.writeError(w, http.StatusNotFound, "Note not found")
	case err != nil:
		h.l.Error("failed to delete note", zap.Error(err))
		return h.writeError(w, http.StatusInternalServerError, "Internal server error")
	case result.Simulated:
		persisted := false
		return h.writeJSON(w, http.StatusOK, responses.NoteDeleted{
			OK:        true,
			Deleted:   true,
			Persisted: &persisted,
			Simulated: true,
		})
	default:
		return h.writeJSON(w, http.StatusOK, responses.NoteDeleted{OK: true, Deleted: true})
	}
}

func (h *HTTP) authenticate(w http.ResponseWriter, r *http.Request) int {
	var payload requests.Auth
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
	}
	if payload.Password == "" {
		return h.writeError(w, http.StatusBadRequest, "Password is required")
	}

	token, err := h.gate.Authenticate(r.Context(), payload.Password)
	if err != nil {
		return h.writeError(w, http.StatusUnauthorized, "Invalid password")
	}

	return h.writeJSON(w, http.StatusOK, responses.Auth{
		Success:      true,
		SessionToken: token,
		Message:      "Authentication successful",
	})
}

func (h *HTTP) verifyToken(w http.ResponseWriter, r *http.Request) int {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return h.writeError(w, http.StatusUnauthorized, "No token provided")
	}
	if err := h.gate.Verify(token); err != nil {
		return h.writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	}
	return h.writeJSON(w, http.StatusOK, responses.TokenValid{Valid: true})
}
