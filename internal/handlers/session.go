package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/studytrack/apiserver/internal/services"
	"github.com/studytrack/apiserver/internal/store"
	"github.com/studytrack/apiserver/types"
)

// SessionHandler provides HTTP handlers for the study timer and history.
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler constructs a handler with the provided service.
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// SessionRouter registers session routes on the given router. All routes
// act on behalf of the authenticated user.
func SessionRouter(r chi.Router, sessionService *services.SessionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSessionHandler(sessionService)

	r.Use(authMiddleware)
	r.Post("/", handler.StartSession)
	r.Get("/", handler.ListSessions)
	r.Get("/current", handler.CurrentSession)
	r.Get("/total", handler.TotalDuration)
	r.Post("/{sessionID}/end", handler.EndSession)
}

// StartSession opens a new study session for the caller.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.sessionService.Start(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// EndSession closes one of the caller's open sessions.
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessionID, err := parseSessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessionService.End(r.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, store.ErrAlreadyEnded):
			writeError(w, http.StatusConflict, "session already ended")
		default:
			writeError(w, http.StatusInternalServerError, "failed to end session")
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// CurrentSession returns the caller's open session, if any. The client
// derives its ticking timer from the start_time in the response.
func (h *SessionHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.sessionService.Current(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no session in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// ListSessions returns the caller's study history, filtered and sorted via
// query parameters: range (all|today|7d|30d|custom), from/to (YYYY-MM-DD,
// used with range=custom), sort (newest|oldest|longest|shortest), limit.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	sessions, err := h.sessionService.List(
		r.Context(),
		userID,
		strings.TrimSpace(q.Get("range")),
		strings.TrimSpace(q.Get("from")),
		strings.TrimSpace(q.Get("to")),
		strings.TrimSpace(q.Get("sort")),
		limit,
	)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid range or sort")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, SessionListResponse{Items: sessions})
}

// TotalDuration returns the caller's total ended study time in seconds.
func (h *SessionHandler) TotalDuration(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	total, err := h.sessionService.TotalDuration(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute total")
		return
	}

	writeJSON(w, http.StatusOK, TotalDurationResponse{TotalDuration: total})
}

type StartSessionRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

// SessionListResponse is the session listing payload.
type SessionListResponse struct {
	Items []types.StudySession `json:"items"`
}

// TotalDurationResponse reports a duration sum in seconds.
type TotalDurationResponse struct {
	TotalDuration int64 `json:"total_duration"`
}

func parseSessionID(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid session id")
	}
	return id, nil
}
