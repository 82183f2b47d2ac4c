package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"goyo-backend/config"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Storage abstracts where model artifacts and exported documents live.
// Keys are forward-slash paths relative to the store root.
type Storage interface {
	// Put stores an object under the given key, replacing any previous
	// object with the same key.
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves an object. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// NewStorage creates a storage backend based on configuration
func NewStorage(cfg *config.Config) (Storage, error) {
	switch StorageType(cfg.StorageType) {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.StorageLocalPath)

	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for s3 storage")
		}
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
