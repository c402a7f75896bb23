package database

import (
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrPrecondition is returned when the store is not open or the schema
	// could not be initialized.
	ErrPrecondition = errors.New("store not initialized")
	// ErrNotFound is returned for unknown user or character ids.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule,
	// such as a second progress row for the same user and character.
	ErrConflict = errors.New("conflict")
	// ErrConsistency marks a cached viewed count that disagreed with
	// user_progress. It is logged when repaired, not returned.
	ErrConsistency = errors.New("viewed count out of sync")
	// ErrInvalidInput is returned when user supplied values fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by Authenticate.
	ErrInvalidCredentials = errors.New("invalid username or pin")
)

// isUniqueViolation reports whether err is a unique constraint failure
// from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
