// Package store implements the PostgreSQL repositories for users and
// sessions. Sentinel errors let handlers distinguish the failure cases
// they must translate into API errors; match them with errors.Is.
package store

import "errors"

var (
	// ErrUserNotFound is returned when a username, email or id does not
	// resolve to a users row.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when an insert or update collides with
	// the case-insensitive unique index on username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned when an insert or update collides with the
	// unique constraint on email.
	ErrEmailTaken = errors.New("email already taken")

	// ErrSessionNotFound is returned when no session row matches a token,
	// or the matching row is already expired. The two cases are
	// intentionally indistinguishable.
	ErrSessionNotFound = errors.New("session not found")
)
