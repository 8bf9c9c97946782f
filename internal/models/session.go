package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a row in the PostgreSQL sessions table. A session is
// valid while "now" is strictly before ExpiresAt; every successful
// validation slides ExpiresAt forward by the full window.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest is the JSON body for POST /api/v1/sessions.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
