// Package sync keeps an in-memory snapshot of a scoped record collection
// aligned with the store. A Syncer loads the full collection, subscribes to
// its change topic and reloads on every notification. Consumers only ever see
// complete snapshots; there are no per-record deltas.
package sync

import (
	"context"
	"sync"
	"time"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

// State is the lifecycle phase of a Syncer.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSynced  State = "synced"
	StateError   State = "error"
)

// Config wires a Syncer to one scoped collection.
type Config[T any] struct {
	// Entity names the collection in logs and metrics.
	Entity string
	// Topic is the change channel matching the List scope.
	Topic broker.Topic
	// List loads the full, already-sorted snapshot for the scope.
	List func(ctx context.Context) ([]T, error)

	Broker  broker.Broker
	Logger  *logger.Logger
	Metrics *metrics.SyncMetrics

	// ReloadTimeout bounds each reload triggered by a notification.
	ReloadTimeout time.Duration
	// Buffer sizes the updates channel. Snapshots supersede each other, so
	// under pressure the oldest pending snapshot is dropped.
	Buffer int
}

// Syncer maintains one live snapshot. It is safe for concurrent reads; only
// its own goroutine writes.
type Syncer[T any] struct {
	cfg Config[T]

	mu         sync.RWMutex
	state      State
	lastErr    error
	snapshot   []T
	generation uint64

	sub     *broker.Subscription
	updates chan []T
	done    chan struct{}
}

func New[T any](cfg Config[T]) *Syncer[T] {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}
	if cfg.ReloadTimeout <= 0 {
		cfg.ReloadTimeout = 10 * time.Second
	}
	return &Syncer[T]{
		cfg:     cfg,
		state:   StateIdle,
		updates: make(chan []T, cfg.Buffer),
		done:    make(chan struct{}),
	}
}

// Start performs the initial load and begins following change notifications.
// On a failed initial load the syncer lands in StateError and the error is
// returned; Start must not be called again afterwards.
func (s *Syncer[T]) Start(ctx context.Context) error {
	s.setState(StateLoading, nil)

	gen := s.currentGeneration()
	rows, err := s.load(ctx)
	if err != nil {
		s.setState(StateError, err)
		s.cfg.Metrics.IncReloadFailure(s.cfg.Entity)
		return err
	}
	s.apply(gen, rows)

	sub, err := s.cfg.Broker.Subscribe(ctx, s.cfg.Topic)
	if err != nil {
		s.setState(StateError, err)
		return err
	}
	s.sub = sub

	go s.follow(ctx)
	return nil
}

// follow reloads on every notification until the subscription closes.
func (s *Syncer[T]) follow(ctx context.Context) {
	defer close(s.updates)
	for range s.sub.Notifications() {
		select {
		case <-s.done:
			return
		default:
		}
		s.reload(ctx)
	}
}

func (s *Syncer[T]) reload(ctx context.Context) {
	gen := s.currentGeneration()

	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.ReloadTimeout)
	rows, err := s.load(loadCtx)
	cancel()

	if err != nil {
		// Keep the last good snapshot; the next notification retries.
		s.setState(StateError, err)
		s.cfg.Metrics.IncReloadFailure(s.cfg.Entity)
		s.cfg.Logger.Warn(ctx, "snapshot reload failed for "+s.cfg.Entity+": "+err.Error())
		return
	}
	s.apply(gen, rows)
}

func (s *Syncer[T]) load(ctx context.Context) ([]T, error) {
	return s.cfg.List(ctx)
}

// apply installs a snapshot unless the syncer moved on while the load was in
// flight. A stale result is discarded without observable effect.
func (s *Syncer[T]) apply(gen uint64, rows []T) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.snapshot = rows
	s.state = StateSynced
	s.lastErr = nil
	s.mu.Unlock()

	s.cfg.Metrics.IncSnapshot(s.cfg.Entity)
	s.deliver(rows)
}

// deliver hands the snapshot to the updates channel, dropping the oldest
// pending one when the consumer lags. Later snapshots always win.
func (s *Syncer[T]) deliver(rows []T) {
	for {
		select {
		case s.updates <- rows:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// Stop invalidates in-flight loads and tears the subscription down. In-flight
// results arriving after Stop are discarded.
func (s *Syncer[T]) Stop() {
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return
	default:
	}
	s.generation++
	close(s.done)
	s.mu.Unlock()

	if s.sub != nil {
		s.sub.Unsubscribe()
	}
}

// Updates streams full snapshots in arrival order. The channel closes after
// Stop once the follower goroutine exits.
func (s *Syncer[T]) Updates() <-chan []T {
	return s.updates
}

// Snapshot returns a copy of the current snapshot.
func (s *Syncer[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// State reports the current lifecycle phase.
func (s *Syncer[T]) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error behind StateError, nil otherwise.
func (s *Syncer[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Syncer[T]) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Syncer[T]) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
