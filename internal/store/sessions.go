package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contasdev/contas-api/internal/models"
)

const sessionColumns = "id, token, user_id, expires_at, created_at, updated_at"

// SessionStore persists sessions in PostgreSQL. Expiry is always part of
// the query predicate so there is no window between checking a session and
// using it under concurrent requests.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Insert stores a new session row and returns it with the generated id and
// audit timestamps.
func (s *SessionStore) Insert(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (token, user_id, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING `+sessionColumns,
		token, userID, expiresAt,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &sess, nil
}

// FindActiveByToken returns the session for token whose expiry is strictly
// in the future relative to now. Absent and expired sessions are both
// ErrSessionNotFound.
func (s *SessionStore) FindActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE token = $1 AND expires_at > $2
		 LIMIT 1`,
		token, now,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &sess, nil
}

// Renew advances expires_at and updated_at for the session holding token
// and returns the renewed row.
func (s *SessionStore) Renew(ctx context.Context, token string, expiresAt, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET expires_at = $2, updated_at = $3
		 WHERE token = $1
		 RETURNING `+sessionColumns,
		token, expiresAt, now,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("renew session: %w", err)
	}
	return &sess, nil
}

// Expire invalidates the session holding token by moving its expiry to now;
// "now >= expires_at" fails every later validation, so the session is
// permanently dead. The row itself is kept.
func (s *SessionStore) Expire(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.pool.QueryRow(ctx,
		`UPDATE sessions
		 SET expires_at = $2, updated_at = $2
		 WHERE token = $1
		 RETURNING `+sessionColumns,
		token, now,
	).Scan(&sess.ID, &sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("expire session: %w", err)
	}
	return &sess, nil
}
