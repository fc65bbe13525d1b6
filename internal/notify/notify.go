// Package notify sends push payloads to sets of device tokens. Delivery is
// best-effort: a dispatcher never fails the caller for individual token
// failures, and an empty token set is a no-op.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Payload is one push notification.
type Payload struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Dispatcher fans a payload out to device tokens.
type Dispatcher interface {
	Send(ctx context.Context, payload Payload, tokens []string, data map[string]string) error
}

// NoOpDispatcher drops every payload. Used when push delivery is disabled.
type NoOpDispatcher struct {
	Logger *zap.Logger
}

// Send logs and discards the payload.
func (d *NoOpDispatcher) Send(_ context.Context, payload Payload, tokens []string, _ map[string]string) error {
	if d.Logger != nil {
		d.Logger.Debug("push dispatch disabled, dropping payload",
			zap.String("title", payload.Title),
			zap.Int("tokens", len(tokens)),
		)
	}
	return nil
}
