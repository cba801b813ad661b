package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/studytrack/apiserver/types"
)

func TestSessionStart_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT\s+INTO\s+study_sessions\s*\(user_id,\s*title,\s*description,\s*start_time\)`).
		WithArgs(1, "Math", nil, start).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))

	session, err := repo.Start(context.Background(), types.StudySession{
		UserID:    1,
		Title:     "Math",
		StartTime: start,
	})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if session.ID != 10 {
		t.Fatalf("unexpected id: %d", session.ID)
	}
	if session.EndTime != nil || session.Duration != nil {
		t.Fatalf("new session must have no end time or duration")
	}
}

func TestSessionEnd_SetsDurationFromStart(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(125 * time.Second)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "start_time", "end_time", "duration"}).
		AddRow(10, 1, "Math", nil, start, nil, nil)
	mock.ExpectQuery(`SELECT\s+id,\s*user_id,\s*title`).
		WithArgs(10).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE\s+study_sessions\s+SET\s+end_time`).
		WithArgs(end, int64(125), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	session, err := repo.End(context.Background(), 10, end)
	if err != nil {
		t.Fatalf("End error: %v", err)
	}
	if session.EndTime == nil || session.Duration == nil {
		t.Fatalf("ended session must set end_time and duration together")
	}
	if *session.Duration != 125 {
		t.Fatalf("duration: got %d, want 125", *session.Duration)
	}
	if !session.EndTime.Equal(end) {
		t.Fatalf("end_time: got %v, want %v", session.EndTime, end)
	}
}

func TestSessionEnd_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	mock.ExpectQuery(`SELECT\s+id,\s*user_id,\s*title`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.End(context.Background(), 99, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSessionEnd_AlreadyEnded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ended := start.Add(time.Hour)
	duration := int64(3600)

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "start_time", "end_time", "duration"}).
		AddRow(10, 1, "Math", nil, start, ended, duration)
	mock.ExpectQuery(`SELECT\s+id,\s*user_id,\s*title`).
		WithArgs(10).
		WillReturnRows(rows)

	_, err := repo.End(context.Background(), 10, time.Now())
	if !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("want ErrAlreadyEnded, got %v", err)
	}
}

func TestSessionEnd_LostRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// The read sees an open session but another caller ends it first;
	// the guarded update touches zero rows.
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "start_time", "end_time", "duration"}).
		AddRow(10, 1, "Math", nil, start, nil, nil)
	mock.ExpectQuery(`SELECT\s+id,\s*user_id,\s*title`).
		WithArgs(10).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE\s+study_sessions\s+SET\s+end_time`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.End(context.Background(), 10, start.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("want ErrAlreadyEnded, got %v", err)
	}
}

func TestSessionListByUser_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	from := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	start := time.Date(2026, 2, 25, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "start_time", "end_time", "duration"}).
		AddRow(10, 1, "Math", nil, start, nil, nil)
	mock.ExpectQuery(`start_time\s*>=\s*\$2\s+AND\s+start_time\s*<\s*\$3\s+ORDER\s+BY\s+start_time\s+DESC\s+LIMIT\s+\$4`).
		WithArgs(1, from, until, 5).
		WillReturnRows(rows)

	sessions, err := repo.ListByUser(context.Background(), 1, types.SessionFilter{
		From:  &from,
		Until: &until,
		Sort:  types.SortNewestFirst,
		Limit: 5,
	})
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != 10 {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
}

func TestSessionListByUser_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "start_time", "end_time", "duration"})
	mock.ExpectQuery(`ORDER\s+BY\s+start_time\s+DESC`).
		WithArgs(1).
		WillReturnRows(rows)

	sessions, err := repo.ListByUser(context.Background(), 1, types.SessionFilter{})
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if sessions == nil || len(sessions) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", sessions)
	}
}

func TestSessionTotalDuration(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSessionRepository(db, testLogger())

	mock.ExpectQuery(`SELECT\s+COALESCE\(SUM\(duration\),\s*0\)`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(300)))

	total, err := repo.TotalDuration(context.Background(), 1)
	if err != nil {
		t.Fatalf("TotalDuration error: %v", err)
	}
	if total != 300 {
		t.Fatalf("total: got %d, want 300", total)
	}
}

func TestOrderClause(t *testing.T) {
	cases := []struct {
		sort types.SortOrder
		want string
	}{
		{types.SortNewestFirst, "start_time DESC"},
		{types.SortOldestFirst, "start_time ASC"},
		{types.SortLongestFirst, "duration DESC NULLS LAST, start_time DESC"},
		{types.SortShortestFirst, "duration ASC NULLS LAST, start_time DESC"},
		{types.SortOrder(""), "start_time DESC"},
	}
	for _, tc := range cases {
		if got := orderClause(tc.sort); got != tc.want {
			t.Errorf("orderClause(%q): got %q, want %q", tc.sort, got, tc.want)
		}
	}
}
