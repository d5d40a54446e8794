package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/terrastock-backend/pkg/broker"
	"github.com/mkowalczyk/terrastock-backend/pkg/logger"
	"github.com/mkowalczyk/terrastock-backend/pkg/metrics"
)

func newTestSyncer(t *testing.T, b broker.Broker, list func(ctx context.Context) ([]string, error)) *Syncer[string] {
	t.Helper()

	return New(Config[string]{
		Entity:        "species",
		Topic:         broker.SpeciesTopic("tester"),
		List:          list,
		Broker:        b,
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Metrics:       metrics.NewSyncMetrics(prometheus.NewRegistry()),
		ReloadTimeout: time.Second,
		Buffer:        4,
	})
}

func TestStartLoadsInitialSnapshot(t *testing.T) {
	b := broker.NewMemoryBroker()
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		return []string{"ant", "bee"}, nil
	})
	defer s.Stop()

	require.Equal(t, StateIdle, s.State())
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateSynced, s.State())
	require.Equal(t, []string{"ant", "bee"}, s.Snapshot())
}

func TestStartFailureLandsInErrorState(t *testing.T) {
	b := broker.NewMemoryBroker()
	boom := errors.New("store down")
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		return nil, boom
	})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateError, s.State())
	require.ErrorIs(t, s.Err(), boom)
	require.Empty(t, s.Snapshot())
}

func TestNotificationTriggersReload(t *testing.T) {
	b := broker.NewMemoryBroker()
	var calls atomic.Int64
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"ant"}, nil
		}
		return []string{"ant", "mantis"}, nil
	})
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, []string{"ant"}, s.Snapshot())

	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 2 && snap[1] == "mantis"
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, StateSynced, s.State())
}

func TestFailedReloadKeepsLastSnapshot(t *testing.T) {
	b := broker.NewMemoryBroker()
	var calls atomic.Int64
	boom := errors.New("store down")
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"ant"}, nil
		}
		return nil, boom
	})
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))

	require.Eventually(t, func() bool {
		return s.State() == StateError
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"ant"}, s.Snapshot(), "last good snapshot must survive a failed reload")
	require.ErrorIs(t, s.Err(), boom)
}

func TestRecoveryAfterFailedReload(t *testing.T) {
	b := broker.NewMemoryBroker()
	var calls atomic.Int64
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		switch calls.Add(1) {
		case 2:
			return nil, errors.New("store down")
		default:
			return []string{"ant"}, nil
		}
	})
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))
	require.Eventually(t, func() bool {
		return s.State() == StateError
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))
	require.Eventually(t, func() bool {
		return s.State() == StateSynced
	}, time.Second, 5*time.Millisecond)
}

func TestUpdatesStreamDeliversSnapshots(t *testing.T) {
	b := broker.NewMemoryBroker()
	var calls atomic.Int64
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"ant"}, nil
		}
		return []string{"ant", "bee"}, nil
	})
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))

	select {
	case snap := <-s.Updates():
		require.Equal(t, []string{"ant"}, snap)
	case <-time.After(time.Second):
		t.Fatal("expected the initial snapshot on the updates channel")
	}

	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))
	select {
	case snap := <-s.Updates():
		require.Equal(t, []string{"ant", "bee"}, snap)
	case <-time.After(time.Second):
		t.Fatal("expected the reloaded snapshot on the updates channel")
	}
}

func TestStopDiscardsInFlightLoad(t *testing.T) {
	b := broker.NewMemoryBroker()
	release := make(chan struct{})
	var calls atomic.Int64
	s := newTestSyncer(t, b, func(ctx context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"ant"}, nil
		}
		<-release
		return []string{"stale"}, nil
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, b.Publish(context.Background(), broker.SpeciesTopic("tester")))

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	close(release)

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []string{"ant"}, s.Snapshot(), "a load finishing after stop must be discarded")
}

func TestStopClosesUpdates(t *testing.T) {
	b := broker.NewMemoryBroker()
	s := newTestSyncer(t, b, func(context.Context) ([]string, error) {
		return []string{"ant"}, nil
	})

	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	require.Eventually(t, func() bool {
		for {
			select {
			case _, open := <-s.Updates():
				if !open {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)

	// Stop is idempotent.
	s.Stop()
}
