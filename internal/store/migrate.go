package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration describes one schema migration for the migrations endpoints.
type Migration struct {
	Version   int64      `json:"version"`
	Name      string     `json:"name"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

// Migrator runs the embedded SQL migrations through goose.
type Migrator struct {
	provider *goose.Provider
}

func NewMigrator(db *sql.DB) (*Migrator, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(database.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

// Pending lists migrations that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	pending := []Migration{}
	for _, st := range statuses {
		if st.State != goose.StateApplied {
			pending = append(pending, Migration{
				Version: st.Source.Version,
				Name:    st.Source.Path,
			})
		}
	}
	return pending, nil
}

// Up applies all pending migrations and returns the ones it ran.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration up: %w", err)
	}
	applied := []Migration{}
	now := time.Now().UTC()
	for _, res := range results {
		applied = append(applied, Migration{
			Version:   res.Source.Version,
			Name:      res.Source.Path,
			AppliedAt: &now,
		})
	}
	return applied, nil
}
