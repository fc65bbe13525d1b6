package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSProvider implements Provider on Google Cloud Storage.
type GCSProvider struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSProvider initializes a GCS client and verifies bucket access,
// failing fast on startup misconfiguration. Authenticates via Application
// Default Credentials.
func NewGCSProvider(ctx context.Context, bucket string, logger *zap.Logger) (*GCSProvider, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close gcs client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}
	return &GCSProvider{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads the snapshot to the bucket.
func (g *GCSProvider) Save(ctx context.Context, objectName string, data []byte) error {
	wc := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "text/html; charset=utf-8"
	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			g.logger.Warn("close gcs writer after write failure", zap.Error(closeErr))
		}
		return fmt.Errorf("write gcs object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("finalize gcs object %s: %w", objectName, err)
	}
	return nil
}

// Close closes the underlying client.
func (g *GCSProvider) Close() error {
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}
