package storage

import (
	"context"
	"io"
)

// StorageService persists scrape artifacts, raw markup snapshots and
// exported result files. The destination bucket is bound at construction.
type StorageService interface {
	// Save stores content under objectName.
	Save(ctx context.Context, objectName string, content []byte, contentType string) error

	// Load reads an object back.
	Load(ctx context.Context, objectName string) ([]byte, error)

	// Delete removes an object.
	Delete(ctx context.Context, objectName string) error

	// StreamSave stores content from a reader and returns the object name.
	StreamSave(ctx context.Context, objectName string, reader io.Reader, contentType string) (string, error)
}
