package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/studytrack/apiserver/types"
)

// GroupRepository handles persistence for groups and memberships.
type GroupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewGroupRepository(db *sql.DB, logger *slog.Logger) *GroupRepository {
	return &GroupRepository{db: db, logger: logger}
}

// Create inserts the group and enrolls the creator as its first member.
// Both inserts run in one transaction; a failed membership insert rolls the
// group back so no memberless group is left behind.
func (r *GroupRepository) Create(ctx context.Context, group types.Group) (types.Group, error) {
	group.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Group{}, err
	}
	defer tx.Rollback()

	const insertGroup = `
		INSERT INTO groups (name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		insertGroup,
		group.Name,
		group.Description,
		group.CreatedBy,
		group.CreatedAt,
	).Scan(&group.ID); err != nil {
		r.logger.Error("failed to create group", "name", group.Name, "error", err)
		return types.Group{}, err
	}

	const insertMember = `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, insertMember, group.ID, group.CreatedBy, group.CreatedAt); err != nil {
		r.logger.Error("failed to enroll group creator", "group_id", group.ID, "error", err)
		return types.Group{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Group{}, err
	}
	return group, nil
}

func (r *GroupRepository) Get(ctx context.Context, id int) (types.Group, error) {
	const query = `
		SELECT g.id, g.name, g.description, g.created_by, u.username, g.created_at
		FROM groups g
		JOIN users u ON g.created_by = u.id
		WHERE g.id = $1`
	var group types.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedBy,
		&group.CreatorName,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Group{}, ErrNotFound
		}
		r.logger.Error("failed to get group", "group_id", id, "error", err)
		return types.Group{}, err
	}
	return group, nil
}

// ListJoined returns the groups the user is a member of, with the creator's
// username joined in for display.
func (r *GroupRepository) ListJoined(ctx context.Context, userID int) ([]types.Group, error) {
	const query = `
		SELECT g.id, g.name, g.description, g.created_by, u.username, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		JOIN users u ON g.created_by = u.id
		WHERE gm.user_id = $1
		ORDER BY g.id`
	return r.listGroups(ctx, query, userID)
}

// ListJoinable returns the groups the user is not a member of: the
// anti-join of groups against the user's memberships.
func (r *GroupRepository) ListJoinable(ctx context.Context, userID int) ([]types.Group, error) {
	const query = `
		SELECT g.id, g.name, g.description, g.created_by, u.username, g.created_at
		FROM groups g
		JOIN users u ON g.created_by = u.id
		WHERE g.id NOT IN
			(SELECT group_id FROM group_members WHERE user_id = $1)
		ORDER BY g.id`
	return r.listGroups(ctx, query, userID)
}

func (r *GroupRepository) listGroups(ctx context.Context, query string, userID int) ([]types.Group, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("failed to list groups", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	groups := make([]types.Group, 0)
	for rows.Next() {
		var group types.Group
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.Description,
			&group.CreatedBy,
			&group.CreatorName,
			&group.CreatedAt,
		); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groups, nil
}

// Join inserts a membership row. The composite primary key is the only
// duplicate check; a violation is surfaced as ErrAlreadyMember. Joining a
// group or user that does not exist returns ErrNotFound.
func (r *GroupRepository) Join(ctx context.Context, groupID, userID int) error {
	const query = `
		INSERT INTO group_members (group_id, user_id, joined_at)
		VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID, time.Now()); err != nil {
		if isPGError(err, pgUniqueViolation) {
			return ErrAlreadyMember
		}
		if isPGError(err, pgForeignKeyViolation) {
			return ErrNotFound
		}
		r.logger.Error("failed to join group", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}
	return nil
}

// Leave deletes the membership row. Leaving a group the user is not in is a
// no-op, not an error. A later Join re-inserts from scratch.
func (r *GroupRepository) Leave(ctx context.Context, groupID, userID int) error {
	const query = `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID); err != nil {
		r.logger.Error("failed to leave group", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}
	return nil
}

// MemberStats returns the group leaderboard: every member with the sum of
// their ended session durations, most studied first. The left join keeps
// members with no sessions at a total of zero, and username breaks ties so
// the order is deterministic.
func (r *GroupRepository) MemberStats(ctx context.Context, groupID int) ([]types.MemberStat, error) {
	const query = `
		SELECT u.id, u.username, COALESCE(SUM(s.duration), 0) AS total_duration
		FROM users u
		JOIN group_members gm ON u.id = gm.user_id
		LEFT JOIN study_sessions s ON u.id = s.user_id
		WHERE gm.group_id = $1
		GROUP BY u.id, u.username
		ORDER BY total_duration DESC, u.username ASC`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		r.logger.Error("failed to load member stats", "group_id", groupID, "error", err)
		return nil, err
	}
	defer rows.Close()

	stats := make([]types.MemberStat, 0)
	for rows.Next() {
		var stat types.MemberStat
		if err := rows.Scan(&stat.UserID, &stat.Username, &stat.TotalDuration); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
