// Package postgres persists the design library to Postgres. Reads are served
// from an in-memory copy hydrated on startup; writes go through to the
// designs table before the copy is updated.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"shipyard/internal/infra/persistence/memory"
	"shipyard/internal/library/core"
)

var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/shipyard?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store writes designs to Postgres and reads them from memory.
type Store struct {
	cache *memory.Store
	db    *sql.DB
	mu    sync.Mutex
	nowFn func() time.Time
}

// NewStore opens a Postgres-backed library using dsn (falls back to
// defaultDSN), ensures the designs table and loads existing rows.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	records, err := loadRecords(ctx, db)
	if err != nil {
		return nil, err
	}
	cache := memory.NewStore()
	cache.ImportState(records)
	return &Store{cache: cache, db: db, nowFn: time.Now}, nil
}

// Driver returns the library driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Put upserts the design row, then refreshes the cache.
func (s *Store) Put(ctx context.Context, name string, data []byte) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := core.NewRecord(name, data, s.nowFn())
	if err != nil {
		return core.Entry{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO designs (name, version, payload, modified_at) VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO UPDATE SET version = EXCLUDED.version, payload = EXCLUDED.payload, modified_at = EXCLUDED.modified_at`,
		rec.Name, rec.Version, rec.Payload, rec.ModifiedAt)
	if err != nil {
		return core.Entry{}, fmt.Errorf("upsert design %s: %w", rec.Name, err)
	}
	s.cache.Save(rec)
	return rec.Entry, nil
}

// Get returns a cached design.
func (s *Store) Get(ctx context.Context, name string) (core.Entry, []byte, error) {
	return s.cache.Get(ctx, name)
}

// List returns cached entries sorted by name.
func (s *Store) List(ctx context.Context) ([]core.Entry, error) {
	return s.cache.List(ctx)
}

// Delete removes the row, then the cached copy.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	name = core.NormalizeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.Record(name); !ok {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM designs WHERE name = $1`, name); err != nil {
		return false, fmt.Errorf("delete design %s: %w", name, err)
	}
	return s.cache.Delete(ctx, name)
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS designs (
		name TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		payload BYTEA NOT NULL,
		modified_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure designs table: %w", err)
	}
	return nil
}

func loadRecords(ctx context.Context, db *sql.DB) ([]core.Record, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, version, payload, modified_at FROM designs`)
	if err != nil {
		return nil, fmt.Errorf("select designs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Record
	for rows.Next() {
		var rec core.Record
		if err := rows.Scan(&rec.Name, &rec.Version, &rec.Payload, &rec.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		rec.Size = int64(len(rec.Payload))
		rec.ModifiedAt = rec.ModifiedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return out, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
