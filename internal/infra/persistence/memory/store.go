// Package memory provides an in-memory design library used for tests,
// ephemeral sessions and as the read cache of the Postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"shipyard/internal/library/core"
)

var _ core.Store = (*Store)(nil)

// Store keeps design records keyed by name.
type Store struct {
	mu      sync.RWMutex
	records map[string]core.Record
	nowFn   func() time.Time
}

// NewStore returns an empty in-memory library.
func NewStore() *Store {
	return &Store{records: make(map[string]core.Record), nowFn: time.Now}
}

// SetClock overrides the modification clock.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

// Driver returns the library driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put validates and stores data under name.
func (s *Store) Put(_ context.Context, name string, data []byte) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := core.NewRecord(name, data, s.nowFn())
	if err != nil {
		return core.Entry{}, err
	}
	s.records[rec.Name] = rec
	return rec.Entry, nil
}

// Get returns the entry and a copy of the payload.
func (s *Store) Get(_ context.Context, name string) (core.Entry, []byte, error) {
	name = core.NormalizeName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return core.Entry{}, nil, core.NotFound(name)
	}
	return rec.Entry, append([]byte(nil), rec.Payload...), nil
}

// List returns all entries sorted by name.
func (s *Store) List(_ context.Context) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Entry, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes name, reporting whether it existed.
func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	name = core.NormalizeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[name]
	delete(s.records, name)
	return ok, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Record returns the stored record for name.
func (s *Store) Record(name string) (core.Record, bool) {
	name = core.NormalizeName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	return rec, ok
}

// Save stores a prepared record as is, keeping its metadata.
func (s *Store) Save(rec core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Name] = rec
}

// ImportState replaces the contents with records.
func (s *Store) ImportState(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]core.Record, len(records))
	for _, rec := range records {
		s.records[rec.Name] = rec
	}
}

// ExportState returns every record sorted by name.
func (s *Store) ExportState() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
