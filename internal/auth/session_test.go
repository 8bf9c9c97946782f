package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contasdev/contas-api/internal/models"
	"github.com/contasdev/contas-api/internal/store"
)

const testTTL = 30 * 24 * time.Hour

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// memSessions is an in-memory SessionStore that mirrors the SQL
// semantics: the expiry comparison happens inside the lookup.
type memSessions struct {
	clock *fakeClock
	rows  map[string]*models.Session
}

func newMemSessions(clock *fakeClock) *memSessions {
	return &memSessions{clock: clock, rows: map[string]*models.Session{}}
}

func (m *memSessions) Insert(_ context.Context, token string, userID uuid.UUID, expiresAt time.Time) (*models.Session, error) {
	now := m.clock.Now()
	sess := &models.Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.rows[token] = sess
	copied := *sess
	return &copied, nil
}

func (m *memSessions) FindActiveByToken(_ context.Context, token string, now time.Time) (*models.Session, error) {
	sess, ok := m.rows[token]
	if !ok || !sess.ExpiresAt.After(now) {
		return nil, store.ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (m *memSessions) Renew(_ context.Context, token string, expiresAt, now time.Time) (*models.Session, error) {
	sess, ok := m.rows[token]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	sess.ExpiresAt = expiresAt
	sess.UpdatedAt = now
	copied := *sess
	return &copied, nil
}

func (m *memSessions) Expire(_ context.Context, token string, now time.Time) (*models.Session, error) {
	sess, ok := m.rows[token]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	sess.ExpiresAt = now
	sess.UpdatedAt = now
	copied := *sess
	return &copied, nil
}

type memUsers struct {
	rows map[uuid.UUID]*models.User
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, *models.User) {
	t.Helper()
	clock := newFakeClock()
	u := &models.User{ID: uuid.New(), Username: "filipe", Email: "filipe@example.com"}
	users := &memUsers{rows: map[uuid.UUID]*models.User{u.ID: u}}
	m := NewManager(newMemSessions(clock), users, testTTL, clock.Now)
	return m, clock, u
}

func TestManagerCreate(t *testing.T) {
	m, clock, u := newTestManager(t)

	sess, err := m.Create(context.Background(), u.ID)
	require.NoError(t, err)

	assert.Len(t, sess.Token, 96)
	assert.Equal(t, u.ID, sess.UserID)
	assert.Equal(t, clock.Now().Add(testTTL), sess.ExpiresAt)
	assert.Equal(t, sess.CreatedAt, sess.UpdatedAt)
}

func TestValidateAndRenewSlidesWindow(t *testing.T) {
	m, clock, u := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, u.ID)
	require.NoError(t, err)
	issuedAt := clock.Now()

	clock.Advance(15 * 24 * time.Hour) // half-life

	gotUser, renewed, err := m.ValidateAndRenew(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, gotUser.ID)
	assert.Equal(t, clock.Now().Add(testTTL), renewed.ExpiresAt)
	assert.True(t, renewed.ExpiresAt.After(sess.ExpiresAt))
	assert.True(t, renewed.UpdatedAt.After(sess.UpdatedAt))
	assert.Equal(t, sess.CreatedAt, renewed.CreatedAt)

	// Continuous use keeps the session alive far past the original window.
	for i := 0; i < 4; i++ {
		clock.Advance(29 * 24 * time.Hour)
		_, renewed, err = m.ValidateAndRenew(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, clock.Now().Add(testTTL), renewed.ExpiresAt)
	}
	assert.True(t, clock.Now().Sub(issuedAt) > testTTL)
}

func TestValidateUnknownToken(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, _, err := m.ValidateAndRenew(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestValidateExpiredSessionIsPermanent(t *testing.T) {
	m, clock, u := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(testTTL)

	// The boundary itself is already invalid: validity requires now to be
	// strictly before expires_at.
	_, _, err = m.ValidateAndRenew(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// No grace: later renewal attempts stay dead forever.
	clock.Advance(time.Minute)
	_, _, err = m.ValidateAndRenew(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestValidateJustBeforeExpiry(t *testing.T) {
	m, clock, u := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	clock.Advance(testTTL - time.Second)

	_, renewed, err := m.ValidateAndRenew(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(testTTL), renewed.ExpiresAt)
}

func TestExpiredAndUnknownAreIndistinguishable(t *testing.T) {
	m, clock, u := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, u.ID)
	require.NoError(t, err)
	clock.Advance(testTTL + time.Hour)

	_, _, expiredErr := m.ValidateAndRenew(ctx, sess.Token)
	_, _, unknownErr := m.ValidateAndRenew(ctx, "0000000000000000")

	assert.Equal(t, expiredErr, unknownErr)
}

func TestValidateDanglingUser(t *testing.T) {
	clock := newFakeClock()
	users := &memUsers{rows: map[uuid.UUID]*models.User{}}
	m := NewManager(newMemSessions(clock), users, testTTL, clock.Now)
	ctx := context.Background()

	sess, err := m.Create(ctx, uuid.New())
	require.NoError(t, err)

	_, _, err = m.ValidateAndRenew(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestExpireInvalidatesSession(t *testing.T) {
	m, clock, u := newTestManager(t)
	ctx := context.Background()

	sess, err := m.Create(ctx, u.ID)
	require.NoError(t, err)

	expired, err := m.Expire(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), expired.ExpiresAt)

	_, _, err = m.ValidateAndRenew(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// A second logout behaves like any other missing session.
	_, err = m.Expire(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
