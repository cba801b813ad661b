package services

import (
	"context"
	"strings"
	"time"

	"github.com/studytrack/apiserver/internal/store"
	"github.com/studytrack/apiserver/types"
)

const maxListLimit = 500

// SessionRepository defines persistence operations for study sessions.
type SessionRepository interface {
	Start(ctx context.Context, session types.StudySession) (types.StudySession, error)
	Get(ctx context.Context, id int) (types.StudySession, error)
	GetOpenByUser(ctx context.Context, userID int) (types.StudySession, error)
	End(ctx context.Context, id int, endedAt time.Time) (types.StudySession, error)
	ListByUser(ctx context.Context, userID int, filter types.SessionFilter) ([]types.StudySession, error)
	TotalDuration(ctx context.Context, userID int) (int64, error)
}

// SessionService encapsulates study timer use-cases.
type SessionService struct {
	repo SessionRepository
	now  func() time.Time
}

func NewSessionService(repo SessionRepository) *SessionService {
	return &SessionService{repo: repo, now: time.Now}
}

// Start opens a new session stamped with the current wall-clock time.
func (s *SessionService) Start(ctx context.Context, userID int, title string, description *string) (types.StudySession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.StudySession{}, ErrInvalidInput
	}

	return s.repo.Start(ctx, types.StudySession{
		UserID:      userID,
		Title:       title,
		Description: description,
		StartTime:   s.now(),
	})
}

// End closes the caller's session. Sessions belonging to other users are
// reported as absent rather than revealing they exist.
func (s *SessionService) End(ctx context.Context, userID, sessionID int) (types.StudySession, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return types.StudySession{}, err
	}
	if session.UserID != userID {
		return types.StudySession{}, store.ErrNotFound
	}

	return s.repo.End(ctx, sessionID, s.now())
}

// Current returns the caller's open session, or store.ErrNotFound when no
// session is in progress. Clients derive the ticking elapsed-time display
// from the returned start timestamp.
func (s *SessionService) Current(ctx context.Context, userID int) (types.StudySession, error) {
	return s.repo.GetOpenByUser(ctx, userID)
}

// List returns the caller's sessions restricted to the named date range and
// ordered by the named sort. Supported ranges are "all" (default), "today",
// "7d", "30d" and an explicit from/to date pair in YYYY-MM-DD form, both
// bounds inclusive.
func (s *SessionService) List(ctx context.Context, userID int, rangeName, fromDate, toDate, sortName string, limit int) ([]types.StudySession, error) {
	filter, err := s.resolveFilter(rangeName, fromDate, toDate, sortName, limit)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// TotalDuration reports the caller's total ended study time in seconds.
func (s *SessionService) TotalDuration(ctx context.Context, userID int) (int64, error) {
	return s.repo.TotalDuration(ctx, userID)
}

func (s *SessionService) resolveFilter(rangeName, fromDate, toDate, sortName string, limit int) (types.SessionFilter, error) {
	var filter types.SessionFilter

	sort, err := parseSortOrder(sortName)
	if err != nil {
		return types.SessionFilter{}, err
	}
	filter.Sort = sort

	if limit < 0 {
		limit = 0
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	filter.Limit = limit

	now := s.now()
	switch rangeName {
	case "", "all":
	case "today":
		// Calendar-date comparison: today's midnight up to tomorrow's.
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		until := from.AddDate(0, 0, 1)
		filter.From = &from
		filter.Until = &until
	case "7d":
		from := now.AddDate(0, 0, -7)
		filter.From = &from
	case "30d":
		from := now.AddDate(0, 0, -30)
		filter.From = &from
	case "custom":
		from, err := time.ParseInLocation("2006-01-02", fromDate, now.Location())
		if err != nil {
			return types.SessionFilter{}, ErrInvalidInput
		}
		to, err := time.ParseInLocation("2006-01-02", toDate, now.Location())
		if err != nil {
			return types.SessionFilter{}, ErrInvalidInput
		}
		// Inclusive on both calendar dates: everything before the day
		// after the end date.
		until := to.AddDate(0, 0, 1)
		filter.From = &from
		filter.Until = &until
	default:
		return types.SessionFilter{}, ErrInvalidInput
	}

	return filter, nil
}

func parseSortOrder(name string) (types.SortOrder, error) {
	switch name {
	case "", string(types.SortNewestFirst):
		return types.SortNewestFirst, nil
	case string(types.SortOldestFirst):
		return types.SortOldestFirst, nil
	case string(types.SortLongestFirst):
		return types.SortLongestFirst, nil
	case string(types.SortShortestFirst):
		return types.SortShortestFirst, nil
	default:
		return "", ErrInvalidInput
	}
}
