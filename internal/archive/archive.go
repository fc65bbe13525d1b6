// Package archive stores raw page snapshots in blob storage.
package archive

import "context"

// Provider writes snapshot objects.
type Provider interface {
	// Save uploads data under the given object name.
	Save(ctx context.Context, objectName string, data []byte) error

	// Close releases the underlying client.
	Close() error
}

// NoOpProvider discards every snapshot. Used when archiving is disabled.
type NoOpProvider struct{}

// Save does nothing.
func (*NoOpProvider) Save(_ context.Context, _ string, _ []byte) error { return nil }

// Close does nothing.
func (*NoOpProvider) Close() error { return nil }
