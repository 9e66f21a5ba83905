// Package core defines the design library contract shared by the library
// factory and its persistence backends.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"shipyard/internal/wire"
)

// Driver identifies a library persistence backend.
type Driver string

const (
	// DriverMemory keeps designs in process memory.
	DriverMemory Driver = "memory"
	// DriverSQLite stores designs in a SQLite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores designs in Postgres.
	DriverPostgres Driver = "postgres"
)

// Entry describes a stored design without its payload.
type Entry struct {
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Record is an entry together with its serialized document.
type Record struct {
	Entry
	Payload []byte
}

// Store persists serialized design documents under unique names. Put
// replaces an existing design of the same name.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (Entry, error)
	Get(ctx context.Context, name string) (Entry, []byte, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) (bool, error)
	Driver() Driver
	Close() error
}

var (
	// ErrNotFound is returned by Get for unknown names.
	ErrNotFound = errors.New("library: design not found")
	// ErrInvalidName is returned for blank names.
	ErrInvalidName = errors.New("library: invalid design name")
	// ErrNotDocument is returned when the payload is not a JSON object.
	ErrNotDocument = errors.New("library: payload is not a design document")
)

// NewRecord validates name and data and builds the record to persist. The
// format version is peeked from the payload; the document itself is not
// decoded, so designs from older formats are stored as they are.
func NewRecord(name string, data []byte, now time.Time) (Record, error) {
	name = NormalizeName(name)
	if name == "" {
		return Record{}, ErrInvalidName
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return Record{}, fmt.Errorf("%w: %s", ErrNotDocument, name)
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	return Record{
		Entry: Entry{
			Name:       name,
			Version:    wire.PeekVersion(data),
			Size:       int64(len(data)),
			ModifiedAt: now.UTC(),
		},
		Payload: payload,
	}, nil
}

// NotFound wraps ErrNotFound with the design name.
// NormalizeName is the form under which a design name is stored and looked up.
func NormalizeName(name string) string { return strings.TrimSpace(name) }

func NotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}
