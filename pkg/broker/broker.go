// Package broker carries change notifications between the write path and the
// sync engine. Notifications are bare signals; subscribers re-read the full
// record set themselves, so a dropped duplicate signal is harmless as long as
// at least one survives.
package broker

import (
	"context"
	"sync"
)

// Topic identifies one scoped change stream.
type Topic string

// SpeciesTopic returns the change stream for one owner's species records.
func SpeciesTopic(ownerID string) Topic {
	return Topic("species:" + ownerID)
}

// CategoriesTopic returns the shared, unscoped category change stream.
func CategoriesTopic() Topic {
	return Topic("categories")
}

// Broker is the pub/sub surface the sync engine depends on.
type Broker interface {
	Publish(ctx context.Context, topic Topic) error
	Subscribe(ctx context.Context, topic Topic) (*Subscription, error)
}

// Subscription is a cancellable handle on one topic's notification stream.
type Subscription struct {
	ch     chan struct{}
	cancel func()
	once   sync.Once
}

// NewSubscription builds a subscription around a signal channel and a cancel
// hook. Intended for Broker implementations.
func NewSubscription(ch chan struct{}, cancel func()) *Subscription {
	return &Subscription{ch: ch, cancel: cancel}
}

// Notifications returns the signal channel. It is closed after Unsubscribe.
func (s *Subscription) Notifications() <-chan struct{} {
	return s.ch
}

// Unsubscribe stops further delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// notify performs a non-blocking signal send. A full buffer means a
// notification is already pending, which carries the same information.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
