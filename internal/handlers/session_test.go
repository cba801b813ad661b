package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/studytrack/apiserver/internal/services"
	"github.com/studytrack/apiserver/internal/store"
	"github.com/studytrack/apiserver/types"
)

type memSessionRepo struct {
	sessions map[int]types.StudySession
	nextID   int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[int]types.StudySession), nextID: 1}
}

func (r *memSessionRepo) Start(ctx context.Context, session types.StudySession) (types.StudySession, error) {
	session.ID = r.nextID
	r.nextID++
	r.sessions[session.ID] = session
	return session, nil
}

func (r *memSessionRepo) Get(ctx context.Context, id int) (types.StudySession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return types.StudySession{}, store.ErrNotFound
	}
	return s, nil
}

func (r *memSessionRepo) GetOpenByUser(ctx context.Context, userID int) (types.StudySession, error) {
	for _, s := range r.sessions {
		if s.UserID == userID && s.EndTime == nil {
			return s, nil
		}
	}
	return types.StudySession{}, store.ErrNotFound
}

func (r *memSessionRepo) End(ctx context.Context, id int, endedAt time.Time) (types.StudySession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return types.StudySession{}, store.ErrNotFound
	}
	if s.EndTime != nil {
		return types.StudySession{}, store.ErrAlreadyEnded
	}
	duration := int64(endedAt.Sub(s.StartTime).Seconds())
	s.EndTime = &endedAt
	s.Duration = &duration
	r.sessions[id] = s
	return s, nil
}

func (r *memSessionRepo) ListByUser(ctx context.Context, userID int, filter types.SessionFilter) ([]types.StudySession, error) {
	result := make([]types.StudySession, 0)
	for _, s := range r.sessions {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (r *memSessionRepo) TotalDuration(ctx context.Context, userID int) (int64, error) {
	var total int64
	for _, s := range r.sessions {
		if s.UserID == userID && s.Duration != nil {
			total += *s.Duration
		}
	}
	return total, nil
}

func newSessionRouter() *chi.Mux {
	sessionService := services.NewSessionService(newMemSessionRepo())
	router := chi.NewRouter()
	router.Route("/sessions", func(r chi.Router) {
		SessionRouter(r, sessionService, RequireAuth(testSecret))
	})
	return router
}

func tokenFor(t *testing.T, userID int) string {
	t.Helper()
	token, err := issueToken(userID, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issueToken error: %v", err)
	}
	return token
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	router := newSessionRouter()
	token := tokenFor(t, 1)

	rec := doJSON(t, router, http.MethodPost, "/sessions", token, `{"title":"Math","description":"integrals"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: got %d, want 201 (%s)", rec.Code, rec.Body)
	}
	var started types.StudySession
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if started.ID == 0 || started.EndTime != nil {
		t.Fatalf("unexpected started session: %+v", started)
	}

	rec = doJSON(t, router, http.MethodGet, "/sessions/current", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current: got %d, want 200 (%s)", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sessions/%d/end", started.ID), token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end: got %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var ended types.StudySession
	if err := json.Unmarshal(rec.Body.Bytes(), &ended); err != nil {
		t.Fatalf("decode end response: %v", err)
	}
	if ended.EndTime == nil || ended.Duration == nil {
		t.Fatalf("ended session missing end_time/duration: %+v", ended)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sessions/%d/end", started.ID), token, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("double end: got %d, want 409 (%s)", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodGet, "/sessions/current", token, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("current after end: got %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/sessions/total", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("total: got %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var total TotalDurationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &total); err != nil {
		t.Fatalf("decode total response: %v", err)
	}
	if total.TotalDuration != *ended.Duration {
		t.Fatalf("total %d does not match ended duration %d", total.TotalDuration, *ended.Duration)
	}
}

func TestEndSession_NotOwnedLooksAbsent(t *testing.T) {
	router := newSessionRouter()

	rec := doJSON(t, router, http.MethodPost, "/sessions", tokenFor(t, 1), `{"title":"Math"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: got %d, want 201", rec.Code)
	}
	var started types.StudySession
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("decode start response: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/sessions/%d/end", started.ID), tokenFor(t, 2), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign end: got %d, want 404 (%s)", rec.Code, rec.Body)
	}
}

func TestStartSession_RequiresTitle(t *testing.T) {
	router := newSessionRouter()

	rec := doJSON(t, router, http.MethodPost, "/sessions", tokenFor(t, 1), `{"title":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title: got %d, want 400", rec.Code)
	}
}

func TestListSessions_RejectsBadQuery(t *testing.T) {
	router := newSessionRouter()
	token := tokenFor(t, 1)

	rec := doJSON(t, router, http.MethodGet, "/sessions?sort=fastest", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: got %d, want 400", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/sessions?limit=zero", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got %d, want 400", rec.Code)
	}
}

func TestSessions_RequireAuth(t *testing.T) {
	router := newSessionRouter()

	rec := doJSON(t, router, http.MethodGet, "/sessions", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", rec.Code)
	}
}
