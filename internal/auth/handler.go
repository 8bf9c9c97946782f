package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contasdev/contas-api/internal/apierror"
	"github.com/contasdev/contas-api/internal/models"
	"github.com/contasdev/contas-api/internal/store"
)

// Lifecycle is the session state machine the handlers drive.
type Lifecycle interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	ValidateAndRenew(ctx context.Context, token string) (*models.User, *models.Session, error)
	Expire(ctx context.Context, token string) (*models.Session, error)
	TTL() time.Duration
}

// UserStore is the subset of the user repository login needs.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler holds the session-authentication HTTP handlers.
type Handler struct {
	sessions Lifecycle
	users    UserStore
	secure   bool
	log      *zap.Logger
}

func NewHandler(sessions Lifecycle, users UserStore, secure bool, log *zap.Logger) *Handler {
	return &Handler{sessions: sessions, users: users, secure: secure, log: log}
}

// CurrentUser handles GET /api/v1/user: it authenticates the session
// cookie, slides the expiry window forward, and re-issues the cookie with
// the renewed lifetime.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		apierror.Write(w, apierror.NewNoActiveSessionError())
		return
	}

	user, _, err := h.sessions.ValidateAndRenew(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			apierror.Write(w, apierror.NewNoActiveSessionError())
			return
		}
		h.log.Error("session validation failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	SetSessionCookie(w, cookie.Value, h.sessions.TTL(), h.secure)
	writeJSON(w, http.StatusOK, user)
}

// Login handles POST /api/v1/sessions: it verifies the credentials and
// issues a fresh session. Unknown email and wrong password produce the
// same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.NewInvalidCredentialsError())
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			apierror.Write(w, apierror.NewInvalidCredentialsError())
			return
		}
		h.log.Error("login lookup failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}
	if !ComparePassword(req.Password, user.Password) {
		apierror.Write(w, apierror.NewInvalidCredentialsError())
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.log.Error("session creation failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	SetSessionCookie(w, sess.Token, h.sessions.TTL(), h.secure)
	writeJSON(w, http.StatusCreated, sess)
}

// Logout handles DELETE /api/v1/sessions: it expires the active session
// and clears the cookie. Expired sessions stay in the table as inert rows.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		apierror.Write(w, apierror.NewNoActiveSessionError())
		return
	}

	expired, err := h.sessions.Expire(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			apierror.Write(w, apierror.NewNoActiveSessionError())
			return
		}
		h.log.Error("logout failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	ClearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, expired)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
