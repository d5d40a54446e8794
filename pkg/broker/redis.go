package broker

import (
	"context"
	"strings"

	redisclient "github.com/mkowalczyk/terrastock-backend/pkg/redis"
)

// RedisBroker distributes change notifications over Redis pub/sub so every
// API instance observes writes made by any of them.
type RedisBroker struct {
	client *redisclient.Client
}

// NewRedisBroker wraps the shared redis client.
func NewRedisBroker(client *redisclient.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish signals the topic's channel. The payload is empty on purpose;
// subscribers reload from the store.
func (b *RedisBroker) Publish(ctx context.Context, topic Topic) error {
	return b.client.Publish(ctx, b.channelFor(topic), "")
}

// Subscribe opens a pub/sub channel for the topic and pumps messages into a
// coalescing signal channel.
func (b *RedisBroker) Subscribe(ctx context.Context, topic Topic) (*Subscription, error) {
	pubsub, err := b.client.Subscribe(ctx, b.channelFor(topic))
	if err != nil {
		return nil, err
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for range pubsub.Channel() {
			notify(ch)
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
	}
	return NewSubscription(ch, cancel), nil
}

func (b *RedisBroker) channelFor(topic Topic) string {
	entity, scope, _ := strings.Cut(string(topic), ":")
	return b.client.ChangeChannel(entity, scope)
}
