package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a row in the PostgreSQL users table.
//
// The password field carries the bcrypt hash and is serialized in API
// responses on purpose: the public representation of a user includes the
// stored hash, never the plaintext.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the JSON body for POST /api/v1/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the JSON body for PATCH /api/v1/users/{username}.
// Nil fields are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}
