package pubsub

import (
	"context"
	"fmt"
	"sync"

	"app/internal/config"

	"cloud.google.com/go/pubsub"
)

// Publisher fans application events out to push subscribers. The notification
// pipeline is the only producer today; dead letters from its subscription come
// back in through the DLQ push endpoint.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// GooglePublisher is a Publisher backed by Google Cloud Pub/Sub. Topic handles
// are cached per name so repeated publishes reuse the same batching goroutines.
type GooglePublisher struct {
	client *pubsub.Client

	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

// NewPublisher creates a GooglePublisher for the GCP project from config.
// With PUBSUB_EMULATOR_HOST set the underlying client talks to the emulator.
func NewPublisher(ctx context.Context, cfg *config.Config) (*GooglePublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &GooglePublisher{
		client: client,
		topics: make(map[string]*pubsub.Topic),
	}, nil
}

func (p *GooglePublisher) topic(name string) *pubsub.Topic {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.topics[name]
	if !ok {
		t = p.client.Topic(name)
		p.topics[name] = t
	}
	return t
}

// Publish sends the payload to the given topic and returns the server-assigned
// message ID.
func (p *GooglePublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	result := p.topic(topic).Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}
