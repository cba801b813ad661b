package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/studytrack/apiserver/types"
)

// SessionRepository handles persistence for study sessions.
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSessionRepository(db *sql.DB, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Start inserts a new in-progress session. EndTime and Duration stay NULL
// until End is called. The store does not prevent a user from holding
// several open sessions at once.
func (r *SessionRepository) Start(ctx context.Context, session types.StudySession) (types.StudySession, error) {
	const query = `
		INSERT INTO study_sessions (user_id, title, description, start_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		session.UserID,
		session.Title,
		session.Description,
		session.StartTime,
	).Scan(&session.ID); err != nil {
		r.logger.Error("failed to start session", "user_id", session.UserID, "error", err)
		return types.StudySession{}, err
	}
	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id int) (types.StudySession, error) {
	const query = `
		SELECT id, user_id, title, description, start_time, end_time, duration
		FROM study_sessions
		WHERE id = $1`
	var session types.StudySession
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Description,
		&session.StartTime,
		&session.EndTime,
		&session.Duration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudySession{}, ErrNotFound
		}
		r.logger.Error("failed to get session", "session_id", id, "error", err)
		return types.StudySession{}, err
	}
	return session, nil
}

// GetOpenByUser returns the most recently started session of the user that
// has not ended yet.
func (r *SessionRepository) GetOpenByUser(ctx context.Context, userID int) (types.StudySession, error) {
	const query = `
		SELECT id, user_id, title, description, start_time, end_time, duration
		FROM study_sessions
		WHERE user_id = $1 AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1`
	var session types.StudySession
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.Description,
		&session.StartTime,
		&session.EndTime,
		&session.Duration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudySession{}, ErrNotFound
		}
		r.logger.Error("failed to get open session", "user_id", userID, "error", err)
		return types.StudySession{}, err
	}
	return session, nil
}

// End closes an open session: end_time and duration are written in a single
// UPDATE so they become non-null together. Duration is the elapsed time
// between start and end truncated to whole seconds. Ending an absent
// session returns ErrNotFound; ending one twice returns ErrAlreadyEnded,
// even when two callers race (the end_time IS NULL guard decides).
func (r *SessionRepository) End(ctx context.Context, id int, endedAt time.Time) (types.StudySession, error) {
	session, err := r.Get(ctx, id)
	if err != nil {
		return types.StudySession{}, err
	}
	if session.EndTime != nil {
		return types.StudySession{}, ErrAlreadyEnded
	}

	duration := int64(endedAt.Sub(session.StartTime).Seconds())

	const query = `
		UPDATE study_sessions
		SET end_time = $1,
			duration = $2
		WHERE id = $3 AND end_time IS NULL`
	result, err := r.db.ExecContext(ctx, query, endedAt, duration, id)
	if err != nil {
		r.logger.Error("failed to end session", "session_id", id, "error", err)
		return types.StudySession{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.StudySession{}, err
	}
	if affected == 0 {
		return types.StudySession{}, ErrAlreadyEnded
	}

	session.EndTime = &endedAt
	session.Duration = &duration
	return session, nil
}

// ListByUser returns the user's sessions bounded and ordered by the filter.
// The default order is newest start time first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int, filter types.SessionFilter) ([]types.StudySession, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, user_id, title, description, start_time, end_time, duration
		FROM study_sessions
		WHERE user_id = $1`)

	args := []any{userID}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND start_time >= $%d", len(args))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		fmt.Fprintf(&sb, " AND start_time < $%d", len(args))
	}

	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderClause(filter.Sort))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("failed to list sessions", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	sessions := make([]types.StudySession, 0)
	for rows.Next() {
		var session types.StudySession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Title,
			&session.Description,
			&session.StartTime,
			&session.EndTime,
			&session.Duration,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// TotalDuration sums the durations of the user's ended sessions in seconds.
// Open sessions have NULL duration and contribute nothing.
func (r *SessionRepository) TotalDuration(ctx context.Context, userID int) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(duration), 0)
		FROM study_sessions
		WHERE user_id = $1`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		r.logger.Error("failed to sum session durations", "user_id", userID, "error", err)
		return 0, err
	}
	return total, nil
}

// orderClause maps a sort order to SQL. In-progress sessions have NULL
// duration and sort last under both duration orders.
func orderClause(sort types.SortOrder) string {
	switch sort {
	case types.SortOldestFirst:
		return "start_time ASC"
	case types.SortLongestFirst:
		return "duration DESC NULLS LAST, start_time DESC"
	case types.SortShortestFirst:
		return "duration ASC NULLS LAST, start_time DESC"
	default:
		return "start_time DESC"
	}
}
