package blob

import (
	"context"
	"fmt"

	"shipyard/internal/config"
	fsstore "shipyard/internal/infra/blob/fs"
	memorystore "shipyard/internal/infra/blob/memory"
	s3store "shipyard/internal/infra/blob/s3"
)

// Open selects a Store implementation from configuration.
//
//	SHIPYARD_BLOB_DRIVER: fs|s3|memory (default fs)
//	SHIPYARD_BLOB_FS_ROOT: directory root when driver=fs (default ./designs)
//	SHIPYARD_BLOB_S3_*: bucket, region, endpoint, path style, credentials
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.FSRoot)
	case DriverS3:
		return s3store.New(ctx, s3store.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			SessionToken:    cfg.S3.SessionToken,
			PathStyle:       cfg.S3.PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewMockS3ForTests exposes the fake-transport S3 store for cross-package tests.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }
