package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when registering a username that is
// already taken. The users.username unique constraint is the authority;
// callers must not pre-check.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrAlreadyMember is returned when joining a group the user is already a
// member of. The group_members composite primary key is the authority.
var ErrAlreadyMember = errors.New("already a member")

// ErrAlreadyEnded is returned when ending a session that has already ended.
var ErrAlreadyEnded = errors.New("session already ended")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPGError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
