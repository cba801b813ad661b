package types

import "time"

// StudySession represents a single timed study interval reported by a user.
//
// A session is open while EndTime is nil; ending it sets EndTime and Duration
// together in one update. Duration is derived from the start and end
// timestamps and is never supplied by the caller.
type StudySession struct {
	// ID is the unique identifier of the session.
	ID int `json:"id" db:"id"`

	// UserID is the identifier of the user who owns this session.
	UserID int `json:"user_id" db:"user_id"`

	// Title is the subject of the session (e.g., "Math").
	Title string `json:"title" db:"title"`

	// Description is an optional free-form note about the session.
	Description *string `json:"description,omitempty" db:"description"`

	// StartTime is the wall-clock time the session was started.
	// It is set at creation and never changes.
	StartTime time.Time `json:"start_time" db:"start_time"`

	// EndTime is the wall-clock time the session was ended,
	// or nil while the session is still in progress.
	EndTime *time.Time `json:"end_time,omitempty" db:"end_time"`

	// Duration is the elapsed time of an ended session in whole seconds,
	// or nil while the session is still in progress.
	Duration *int64 `json:"duration,omitempty" db:"duration"`
}

// SortOrder selects how a session listing is ordered.
type SortOrder string

const (
	// SortNewestFirst orders by start time descending. This is the default.
	SortNewestFirst SortOrder = "newest"

	// SortOldestFirst orders by start time ascending.
	SortOldestFirst SortOrder = "oldest"

	// SortLongestFirst orders by duration descending. Sessions still in
	// progress have no duration and sort last.
	SortLongestFirst SortOrder = "longest"

	// SortShortestFirst orders by duration ascending. Sessions still in
	// progress have no duration and sort last.
	SortShortestFirst SortOrder = "shortest"
)

// SessionFilter bounds and orders a session listing.
//
// From and Until are inclusive lower and exclusive upper bounds on the
// session start time; either may be nil to leave that side unbounded.
// Limit caps the number of rows returned; zero means no cap.
type SessionFilter struct {
	From  *time.Time
	Until *time.Time
	Sort  SortOrder
	Limit int
}
