// Package library stores named design documents and selects a persistence
// backend from configuration.
package library

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"shipyard/internal/config"
	"shipyard/internal/infra/persistence/memory"
	"shipyard/internal/infra/persistence/postgres"
	"shipyard/internal/infra/persistence/sqlite"
	"shipyard/internal/library/core"
	"shipyard/internal/observability"
)

type (
	// Driver identifies a library backend.
	Driver = core.Driver
	// Entry describes a stored design.
	Entry = core.Entry
	// Store persists serialized designs by name.
	Store = core.Store
)

const (
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
)

var (
	// ErrNotFound is returned by Get for unknown names.
	ErrNotFound = core.ErrNotFound
	// ErrInvalidName is returned for blank names.
	ErrInvalidName = core.ErrInvalidName
	// ErrNotDocument is returned when the payload is not a JSON object.
	ErrNotDocument = core.ErrNotDocument
)

// Open constructs the configured Store.
func Open(ctx context.Context, cfg config.Library) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown library driver %s", cfg.Driver)
	}
}

// Instrumented wraps a Store with structured logging and operation metrics.
type Instrumented struct {
	Store
	logger  logrus.FieldLogger
	metrics observability.Metrics
}

// Instrument wraps store. Nil logger or metrics disable that concern.
func Instrument(store Store, logger logrus.FieldLogger, metrics observability.Metrics) *Instrumented {
	return &Instrumented{
		Store:   store,
		logger:  observability.OrDiscard(logger).WithField("library", store.Driver()),
		metrics: observability.OrNop(metrics),
	}
}

func (s *Instrumented) done(ctx context.Context, op, name string, start time.Time, err error) {
	s.metrics.Observe(ctx, "library_"+op, err == nil, time.Since(start))
	log := s.logger.WithFields(logrus.Fields{"operation": op, "design": name})
	if err != nil {
		log.WithError(err).Warn("library operation failed")
		return
	}
	log.Debug("library operation")
}

// Put stores data under name.
func (s *Instrumented) Put(ctx context.Context, name string, data []byte) (Entry, error) {
	start := time.Now()
	entry, err := s.Store.Put(ctx, name, data)
	s.done(ctx, "put", name, start, err)
	return entry, err
}

// Get loads the design stored under name.
func (s *Instrumented) Get(ctx context.Context, name string) (Entry, []byte, error) {
	start := time.Now()
	entry, data, err := s.Store.Get(ctx, name)
	s.done(ctx, "get", name, start, err)
	return entry, data, err
}

// List returns all entries.
func (s *Instrumented) List(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := s.Store.List(ctx)
	s.done(ctx, "list", "", start, err)
	return entries, err
}

// Delete removes name.
func (s *Instrumented) Delete(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	ok, err := s.Store.Delete(ctx, name)
	s.done(ctx, "delete", name, start, err)
	return ok, err
}

// Files adapts a Store to the whole-file read and write shape used by the
// workspace, so an editing session can load from and save into the library.
type Files struct {
	store Store
}

// NewFiles wraps store.
func NewFiles(store Store) Files { return Files{store: store} }

// ReadFile returns the payload stored under name.
func (f Files) ReadFile(ctx context.Context, name string) ([]byte, error) {
	_, data, err := f.store.Get(ctx, name)
	return data, err
}

// WriteFile stores data under name.
func (f Files) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := f.store.Put(ctx, name, data)
	return err
}
