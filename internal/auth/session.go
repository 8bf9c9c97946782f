package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/contasdev/contas-api/internal/models"
	"github.com/contasdev/contas-api/internal/store"
)

// ErrNoActiveSession is returned for every failed validation: unknown
// token, expired token, or a session whose user no longer exists. Callers
// must not be able to tell these apart.
var ErrNoActiveSession = errors.New("no active session")

// SessionStore is the persistence contract the manager needs. The expiry
// comparison belongs to the store's query, not to the caller.
type SessionStore interface {
	Insert(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) (*models.Session, error)
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*models.Session, error)
	Renew(ctx context.Context, token string, expiresAt, now time.Time) (*models.Session, error)
	Expire(ctx context.Context, token string, now time.Time) (*models.Session, error)
}

// UserFinder resolves a session's owner.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Manager implements the session lifecycle: issuance, sliding-window
// renewal, and expiration. The window and the clock are fixed at
// construction; tests inject a fake clock to simulate elapsed time.
type Manager struct {
	sessions SessionStore
	users    UserFinder
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(sessions SessionStore, users UserFinder, ttl time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Manager{sessions: sessions, users: users, ttl: ttl, now: now}
}

// TTL returns the session expiration window.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create issues a new session for userID, valid for one full window.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	return m.sessions.Insert(ctx, token, userID, m.now().Add(m.ttl))
}

// ValidateAndRenew authenticates a token. On success the session's expiry
// slides forward by the full window — renewal is unconditional on every
// valid check, so continuous use keeps a session alive indefinitely while
// a single gap longer than the window kills it for good.
func (m *Manager) ValidateAndRenew(ctx context.Context, token string) (*models.User, *models.Session, error) {
	now := m.now()

	sess, err := m.sessions.FindActiveByToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, nil, ErrNoActiveSession
		}
		return nil, nil, err
	}

	renewed, err := m.sessions.Renew(ctx, token, now.Add(m.ttl), now)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, nil, ErrNoActiveSession
		}
		return nil, nil, err
	}

	user, err := m.users.FindByID(ctx, sess.UserID)
	if err != nil {
		// A session pointing at a missing user is an inconsistent state;
		// it must look exactly like having no session at all.
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil, ErrNoActiveSession
		}
		return nil, nil, err
	}

	return user, renewed, nil
}

// Expire invalidates the active session holding token (logout). The token
// must still be valid; expiring an unknown or already-expired token is
// ErrNoActiveSession.
func (m *Manager) Expire(ctx context.Context, token string) (*models.Session, error) {
	now := m.now()

	if _, err := m.sessions.FindActiveByToken(ctx, token, now); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}

	expired, err := m.sessions.Expire(ctx, token, now)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return expired, nil
}
