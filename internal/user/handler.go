// Package user implements the account endpoints: creation, lookup and
// partial update, keyed by username.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contasdev/contas-api/internal/apierror"
	"github.com/contasdev/contas-api/internal/auth"
	"github.com/contasdev/contas-api/internal/cache"
	"github.com/contasdev/contas-api/internal/models"
	"github.com/contasdev/contas-api/internal/store"
)

// cacheTTL bounds how stale a cached public profile may be.
const cacheTTL = 30 * time.Second

// Store defines the user persistence the handlers need.
type Store interface {
	Create(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, username, email, passwordHash string) (*models.User, error)
}

// Handler holds the account HTTP handlers.
type Handler struct {
	users      Store
	cache      *cache.Cache
	bcryptCost int
	log        *zap.Logger
}

func NewHandler(users Store, c *cache.Cache, bcryptCost int, log *zap.Logger) *Handler {
	return &Handler{users: users, cache: c, bcryptCost: bcryptCost, log: log}
}

// Create handles POST /api/v1/users. The response carries the full stored
// representation, hashed password included.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierror.Write(w, apierror.NewValidationError(
			"O corpo da requisição não é um JSON válido.",
			"Envie um JSON válido e tente novamente.",
		))
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		apierror.Write(w, apierror.NewValidationError(
			"Os campos username, email e password são obrigatórios.",
			"Envie todos os campos obrigatórios e tente novamente.",
		))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		h.log.Error("password hashing failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	created, err := h.users.Create(r.Context(), req.Username, req.Email, hash)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /api/v1/users/{username}. The lookup is case-insensitive
// and goes through a short-lived read-through cache.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	key := cacheKey(username)

	if body, err := h.cache.Get(r.Context(), key); err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	found, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	if body, err := json.Marshal(found); err == nil {
		if err := h.cache.Set(r.Context(), key, body, cacheTTL); err != nil {
			h.log.Warn("user cache set failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, found)
}

// Update handles PATCH /api/v1/users/{username}. Absent fields keep their
// current values; a supplied password is re-hashed before storage;
// updated_at is bumped even when nothing changed.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	current, err := h.users.FindByUsername(r.Context(), username)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	var req models.UpdateUserRequest
	// An empty body is a valid no-op patch; it still bumps updated_at.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apierror.Write(w, apierror.NewValidationError(
			"O corpo da requisição não é um JSON válido.",
			"Envie um JSON válido e tente novamente.",
		))
		return
	}

	newUsername := current.Username
	if req.Username != nil {
		newUsername = *req.Username
	}
	newEmail := current.Email
	if req.Email != nil {
		newEmail = *req.Email
	}
	newHash := current.Password
	if req.Password != nil {
		newHash, err = auth.HashPassword(*req.Password, h.bcryptCost)
		if err != nil {
			h.log.Error("password hashing failed", zap.Error(err))
			apierror.Write(w, err)
			return
		}
	}

	updated, err := h.users.Update(r.Context(), current.ID, newUsername, newEmail, newHash)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.invalidate(r.Context(), current.Username, updated.Username)
	writeJSON(w, http.StatusOK, updated)
}

// invalidate drops stale cache entries after an update. Both the previous
// and the new username keys may hold the old representation.
func (h *Handler) invalidate(ctx context.Context, usernames ...string) {
	keys := make([]string, 0, len(usernames))
	for _, name := range usernames {
		keys = append(keys, cacheKey(name))
	}
	if err := h.cache.Del(ctx, keys...); err != nil {
		h.log.Warn("user cache invalidation failed", zap.Error(err))
	}
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		apierror.Write(w, apierror.NewUsernameNotFoundError())
	case errors.Is(err, store.ErrUsernameTaken):
		apierror.Write(w, apierror.NewUsernameTakenError())
	case errors.Is(err, store.ErrEmailTaken):
		apierror.Write(w, apierror.NewEmailTakenError())
	default:
		h.log.Error("user store failure", zap.Error(err))
		apierror.Write(w, err)
	}
}

func cacheKey(username string) string {
	return "user:" + strings.ToLower(username)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
