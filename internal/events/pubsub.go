package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// PubSubPublisher publishes capture events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	topic *pubsub.Topic
}

// NewPubSubPublisher wraps an existing topic handle.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("pubsub topic is required")
	}
	return &PubSubPublisher{topic: topic}, nil
}

// Publish marshals the event to JSON and publishes it, returning the server
// message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, event CaptureEvent) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal capture event: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"bot_status": event.BotStatus},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish capture event: %w", err)
	}
	return id, nil
}
