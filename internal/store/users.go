package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contasdev/contas-api/internal/models"
)

const userColumns = "id, username, email, password, created_at, updated_at"

// UserStore handles user CRUD against PostgreSQL. Uniqueness of username
// (case-insensitive) and email is enforced by database constraints, not by
// pre-checks, so concurrent writers race safely: both attempt the write and
// exactly one succeeds.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Create inserts a user with an already-hashed password. The database
// generates the id and the audit timestamps.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &u, nil
}

// FindByUsername fetches a user by case-insensitive username match.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1) LIMIT 1`,
		username)
}

// FindByEmail fetches a user by exact email match.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`,
		email)
}

// FindByID fetches a user by id.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`,
		id)
}

// Update rewrites the mutable fields of a user row and bumps updated_at
// unconditionally, even when every value is unchanged.
func (s *UserStore) Update(ctx context.Context, id uuid.UUID, username, email, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET username = $2, email = $3, password = $4, updated_at = timezone('utc', now())
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if uniqueErr := mapUniqueViolation(err); uniqueErr != nil {
			return nil, uniqueErr
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &u, nil
}

func (s *UserStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// mapUniqueViolation translates a unique-violation (23505) into the
// per-field sentinel, keyed by the constraint names from the migrations.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_username_unique":
		return ErrUsernameTaken
	case "users_email_unique":
		return ErrEmailTaken
	}
	return nil
}
