package broker

import (
	"context"
	"sync"
)

// MemoryBroker is a process-local fan-out used by the local fallback mode and
// by tests. Delivery stops synchronously on Unsubscribe.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[Topic][]*memorySub
}

type memorySub struct {
	ch     chan struct{}
	closed bool
}

// NewMemoryBroker constructs an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[Topic][]*memorySub{}}
}

// Publish signals every live subscriber of the topic.
func (b *MemoryBroker) Publish(_ context.Context, topic Topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs[topic] {
		if !sub.closed {
			notify(sub.ch)
		}
	}
	return nil
}

// Subscribe registers a new subscriber on the topic.
func (b *MemoryBroker) Subscribe(_ context.Context, topic Topic) (*Subscription, error) {
	sub := &memorySub{ch: make(chan struct{}, 1)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		remaining := b.subs[topic][:0]
		for _, s := range b.subs[topic] {
			if s != sub {
				remaining = append(remaining, s)
			}
		}
		b.subs[topic] = remaining
		close(sub.ch)
	}

	return NewSubscription(sub.ch, cancel), nil
}
