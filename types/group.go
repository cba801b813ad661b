package types

import "time"

// Group represents a study group users can join to compare progress.
type Group struct {
	// ID is the unique identifier of the group.
	ID int `json:"id" db:"id"`

	// Name is the display name of the group.
	Name string `json:"name" db:"name"`

	// Description is an optional free-form description of the group.
	Description *string `json:"description,omitempty" db:"description"`

	// CreatedBy is the identifier of the user who created the group.
	// The creator is enrolled as the first member at creation time.
	CreatedBy int `json:"created_by" db:"created_by"`

	// CreatorName is the creator's username, populated on reads that join
	// through the users table for display. It is not a column of groups.
	CreatorName string `json:"creator_name,omitempty" db:"creator_name"`

	// CreatedAt is the timestamp at which the group was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// GroupMember represents one user's membership in one group.
type GroupMember struct {
	// GroupID is the identifier of the group.
	GroupID int `json:"group_id" db:"group_id"`

	// UserID is the identifier of the member.
	UserID int `json:"user_id" db:"user_id"`

	// JoinedAt is the timestamp at which the user joined the group.
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// MemberStat is one row of a group leaderboard: a member together with the
// sum of their ended study session durations in seconds. Members with no
// ended sessions report a total of zero.
type MemberStat struct {
	UserID        int    `json:"user_id" db:"user_id"`
	Username      string `json:"username" db:"username"`
	TotalDuration int64  `json:"total_duration" db:"total_duration"`
}
