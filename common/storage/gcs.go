package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/LexiconIndonesia/jobscout-service/common/config"
)

// GCSStorage implements StorageService on Google Cloud Storage.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage connects to GCS using the configured credentials file.
func NewGCSStorage(ctx context.Context, cfg config.GCSConfig) (StorageService, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: GCS bucket is not configured")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: connecting to GCS: %w", err)
	}

	log.Info().Str("bucket", cfg.Bucket).Msg("GCS storage connected")

	return &GCSStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (g *GCSStorage) Save(ctx context.Context, objectName string, content []byte, contentType string) error {
	_, err := g.StreamSave(ctx, objectName, bytes.NewReader(content), contentType)
	return err
}

func (g *GCSStorage) Load(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage: opening object %s: %w", objectName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: reading object %s: %w", objectName, err)
	}
	return data, nil
}

func (g *GCSStorage) Delete(ctx context.Context, objectName string) error {
	if err := g.client.Bucket(g.bucket).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("storage: deleting object %s: %w", objectName, err)
	}
	return nil
}

func (g *GCSStorage) StreamSave(ctx context.Context, objectName string, reader io.Reader, contentType string) (string, error) {
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, reader); err != nil {
		wc.Close()
		return "", fmt.Errorf("storage: writing object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("storage: finalizing object %s: %w", objectName, err)
	}

	return objectName, nil
}
