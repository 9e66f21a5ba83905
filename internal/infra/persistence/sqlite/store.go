// Package sqlite persists the design library to a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"shipyard/internal/library/core"
)

var _ core.Store = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS designs (
	name TEXT PRIMARY KEY,
	version TEXT NOT NULL,
	payload BLOB NOT NULL,
	modified_at TEXT NOT NULL
)`

// Store keeps one row per design name.
type Store struct {
	db    *sql.DB
	path  string
	nowFn func() time.Time
}

// NewStore opens (creating if needed) the SQLite file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "shipyard.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create designs table: %w", err)
	}
	return &Store{db: db, path: path, nowFn: time.Now}, nil
}

// Driver returns the library driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB exposes the underlying sql.DB for tests.
func (s *Store) DB() *sql.DB { return s.db }

// Put upserts the design row.
func (s *Store) Put(ctx context.Context, name string, data []byte) (core.Entry, error) {
	rec, err := core.NewRecord(name, data, s.nowFn())
	if err != nil {
		return core.Entry{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO designs (name, version, payload, modified_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET version = excluded.version, payload = excluded.payload, modified_at = excluded.modified_at`,
		rec.Name, rec.Version, rec.Payload, rec.ModifiedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Entry{}, fmt.Errorf("upsert design %s: %w", rec.Name, err)
	}
	return rec.Entry, nil
}

// Get loads one design by name.
func (s *Store) Get(ctx context.Context, name string) (core.Entry, []byte, error) {
	name = core.NormalizeName(name)
	row := s.db.QueryRowContext(ctx, `SELECT name, version, payload, modified_at FROM designs WHERE name = ?`, name)
	var (
		entry    core.Entry
		payload  []byte
		modified string
	)
	if err := row.Scan(&entry.Name, &entry.Version, &payload, &modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, nil, core.NotFound(name)
		}
		return core.Entry{}, nil, fmt.Errorf("select design %s: %w", name, err)
	}
	entry.Size = int64(len(payload))
	entry.ModifiedAt = parseTime(modified)
	return entry, payload, nil
}

// List returns every entry sorted by name.
func (s *Store) List(ctx context.Context) ([]core.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, version, length(payload), modified_at FROM designs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select designs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []core.Entry
	for rows.Next() {
		var (
			entry    core.Entry
			modified string
		)
		if err := rows.Scan(&entry.Name, &entry.Version, &entry.Size, &modified); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entry.ModifiedAt = parseTime(modified)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return out, nil
}

// Delete removes name, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	name = core.NormalizeName(name)
	res, err := s.db.ExecContext(ctx, `DELETE FROM designs WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete design %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
