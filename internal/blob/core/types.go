// Package core defines the blob abstractions shared by the blob factory and
// its infra backends.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // User metadata (small, flat key-value)
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store provides a thin S3-like abstraction over design files and catalog
// overrides. Put replaces any existing object under the key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// ErrNotFound is returned by Get and Head for missing keys. It matches
// fs.ErrNotExist so byte-level callers need not import this package.
var ErrNotFound = fmt.Errorf("blob: not found: %w", fs.ErrNotExist)

// ErrInvalidKey is returned for empty or escaping keys.
var ErrInvalidKey = errors.New("blob: invalid key")

// NotFound wraps ErrNotFound with the offending key.
func NotFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}
