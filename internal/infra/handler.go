// Package infra exposes operational endpoints: a database status probe and
// the schema migrations runner.
package infra

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/contasdev/contas-api/internal/apierror"
	"github.com/contasdev/contas-api/internal/store"
)

// DatabaseStatus describes the health of the PostgreSQL dependency.
type DatabaseStatus struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

// Status is the body of GET /api/v1/status.
type Status struct {
	UpdatedAt    time.Time `json:"updated_at"`
	Dependencies struct {
		Database DatabaseStatus `json:"database"`
	} `json:"dependencies"`
}

// Handler holds the infrastructure HTTP handlers.
type Handler struct {
	pool     *pgxpool.Pool
	migrator *store.Migrator
	log      *zap.Logger
}

func NewHandler(pool *pgxpool.Pool, migrator *store.Migrator, log *zap.Logger) *Handler {
	return &Handler{pool: pool, migrator: migrator, log: log}
}

// GetStatus handles GET /api/v1/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var st Status
	st.UpdatedAt = time.Now().UTC()

	if err := h.pool.QueryRow(ctx, "SHOW server_version").
		Scan(&st.Dependencies.Database.Version); err != nil {
		h.log.Error("status: server version query failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	// SHOW returns text; the value is always a base-10 integer.
	var maxConns string
	if err := h.pool.QueryRow(ctx, "SHOW max_connections").Scan(&maxConns); err != nil {
		h.log.Error("status: max_connections query failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}
	st.Dependencies.Database.MaxConnections, _ = strconv.Atoi(maxConns)

	if err := h.pool.QueryRow(ctx,
		`SELECT count(*)::int FROM pg_stat_activity WHERE datname = current_database()`,
	).Scan(&st.Dependencies.Database.OpenedConnections); err != nil {
		h.log.Error("status: opened connections query failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// ListMigrations handles GET /api/v1/migrations: pending migrations only.
func (h *Handler) ListMigrations(w http.ResponseWriter, r *http.Request) {
	pending, err := h.migrator.Pending(r.Context())
	if err != nil {
		h.log.Error("migration status failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// RunMigrations handles POST /api/v1/migrations: applies pending
// migrations, answering 201 when at least one ran and 200 when the schema
// was already up to date.
func (h *Handler) RunMigrations(w http.ResponseWriter, r *http.Request) {
	applied, err := h.migrator.Up(r.Context())
	if err != nil {
		h.log.Error("migration run failed", zap.Error(err))
		apierror.Write(w, err)
		return
	}
	status := http.StatusOK
	if len(applied) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, applied)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
