package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// pushMessage is the wire shape published for the push relay, which owns
// gateway delivery and retry policy.
type pushMessage struct {
	Payload Payload           `json:"payload"`
	Tokens  []string          `json:"tokens"`
	Data    map[string]string `json:"data,omitempty"`
}

// PubSubDispatcher publishes push requests to a Pub/Sub topic consumed by
// the push relay. Authenticates via Application Default Credentials.
type PubSubDispatcher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSubDispatcher creates the client and verifies the topic exists,
// failing fast on startup misconfiguration.
func NewPubSubDispatcher(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubDispatcher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return &PubSubDispatcher{client: client, topic: topic, logger: logger}, nil
}

// Send publishes one push request. Fire-and-forget: the publish result is
// not awaited, and an empty token set publishes nothing.
func (d *PubSubDispatcher) Send(ctx context.Context, payload Payload, tokens []string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	raw, err := json.Marshal(pushMessage{Payload: payload, Tokens: tokens, Data: data})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}
	result := d.topic.Publish(ctx, &pubsub.Message{Data: raw})
	_ = result // delivery is the relay's concern
	d.logger.Debug("push request published",
		zap.String("title", payload.Title),
		zap.Int("tokens", len(tokens)),
	)
	return nil
}

// Close flushes pending publishes and closes the client.
func (d *PubSubDispatcher) Close() error {
	d.topic.Stop()
	if err := d.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
