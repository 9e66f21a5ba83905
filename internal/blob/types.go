// Package blob re-exports the core blob abstractions and selects a backend.
package blob

import (
	"shipyard/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound is returned for missing keys; it matches fs.ErrNotExist.
	ErrNotFound = core.ErrNotFound
	// ErrInvalidKey is returned for empty or escaping keys.
	ErrInvalidKey = core.ErrInvalidKey
)
