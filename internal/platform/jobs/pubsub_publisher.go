package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/sixnames/next-marketplace-sub004/internal/services"
)

// PubSubTaskEventPublisher publishes moderation task events to a Pub/Sub topic.
type PubSubTaskEventPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubTaskEventPublisher constructs a Pub/Sub backed task event publisher.
func NewPubSubTaskEventPublisher(topic *pubsub.Topic) (*PubSubTaskEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub task publisher: topic is required")
	}
	return &PubSubTaskEventPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishTaskEvent enqueues a task event message on the configured topic.
func (p *PubSubTaskEventPublisher) PublishTaskEvent(ctx context.Context, message services.TaskEventMessage) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub task publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal task event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "taskId", message.TaskID)
	setAttr(attrs, "productId", message.ProductID)
	setAttr(attrs, "event", message.Event)
	setAttr(attrs, "state", message.State)
	setAttr(attrs, "createdBy", message.CreatedBy)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish task event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
