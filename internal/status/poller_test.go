package status

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/broadcast"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	next  orchestration.Outcome[models.StatusSnapshot]
	calls atomic.Int32
}

func (f *fakeFetcher) ModelStatus(ctx context.Context) orchestration.Outcome[models.StatusSnapshot] {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

func (f *fakeFetcher) set(out orchestration.Outcome[models.StatusSnapshot]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = out
}

type fakeGate struct {
	reachable atomic.Bool
	updates   *broadcast.Broadcaster[models.ConnectivityState]
}

func newFakeGate(reachable bool) *fakeGate {
	g := &fakeGate{updates: broadcast.New[models.ConnectivityState]()}
	g.reachable.Store(reachable)
	return g
}

func (g *fakeGate) Reachable() bool {
	return g.reachable.Load()
}

func (g *fakeGate) Subscribe() (<-chan models.ConnectivityState, func()) {
	return g.updates.Subscribe(1)
}

func (g *fakeGate) flip(reachable bool) {
	g.reachable.Store(reachable)
	g.updates.Publish(models.ConnectivityState{Reachable: reachable})
}

func trained() orchestration.Outcome[models.StatusSnapshot] {
	return orchestration.Outcome[models.StatusSnapshot]{
		Kind: orchestration.OutcomeOK,
		Value: models.StatusSnapshot{
			State:    models.ModelTrained,
			Progress: 100,
			Message:  "ready",
			Metrics:  map[string]float64{"patterns_stored": 345},
		},
	}
}

func TestPoller_ForceRefresh(t *testing.T) {
	t.Run("gated while unreachable", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(false), config.StatusConfig{PollInterval: time.Hour})

		_, err := poller.ForceRefresh(context.Background())
		assert.ErrorIs(t, err, ErrUnreachable)
		assert.Equal(t, int32(0), fetcher.calls.Load())

		_, ok := poller.Snapshot()
		assert.False(t, ok)
	})

	t.Run("stores the snapshot", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(true), config.StatusConfig{PollInterval: time.Hour})

		snapshot, err := poller.ForceRefresh(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.ModelTrained, snapshot.State)
		assert.True(t, poller.Trained())
	})

	t.Run("re-fetching unchanged status yields an equal snapshot", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(true), config.StatusConfig{PollInterval: time.Hour})

		first, err := poller.ForceRefresh(context.Background())
		require.NoError(t, err)
		second, err := poller.ForceRefresh(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("failure keeps the previous snapshot", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(true), config.StatusConfig{PollInterval: time.Hour})

		_, err := poller.ForceRefresh(context.Background())
		require.NoError(t, err)

		fetcher.set(orchestration.Outcome[models.StatusSnapshot]{Kind: orchestration.OutcomeTimeout, Detail: "slow"})
		_, err = poller.ForceRefresh(context.Background())
		assert.ErrorIs(t, err, orchestration.ErrTimeout)

		snapshot, ok := poller.Snapshot()
		require.True(t, ok)
		assert.Equal(t, models.ModelTrained, snapshot.State)
	})
}

func TestPoller_Loop(t *testing.T) {
	t.Run("ticks are silent no-ops while unreachable", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(false), config.StatusConfig{PollInterval: 5 * time.Millisecond})

		handle, err := poller.Start(context.Background())
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
		handle.Release()

		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("polls on the interval while reachable", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		poller := NewPoller(fetcher, newFakeGate(true), config.StatusConfig{PollInterval: 5 * time.Millisecond})

		handle, err := poller.Start(context.Background())
		require.NoError(t, err)
		defer handle.Release()

		require.Eventually(t, func() bool { return fetcher.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
		assert.True(t, poller.Trained())
	})

	t.Run("polls immediately when the gate turns reachable", func(t *testing.T) {
		fetcher := &fakeFetcher{next: trained()}
		gate := newFakeGate(false)
		poller := NewPoller(fetcher, gate, config.StatusConfig{PollInterval: time.Hour})

		handle, err := poller.Start(context.Background())
		require.NoError(t, err)
		defer handle.Release()

		require.Eventually(t, func() bool { return gate.updates.Len() == 1 }, time.Second, 5*time.Millisecond)
		gate.flip(true)

		require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.True(t, poller.Trained())
	})

	t.Run("second start is rejected", func(t *testing.T) {
		poller := NewPoller(&fakeFetcher{next: trained()}, newFakeGate(false), config.StatusConfig{PollInterval: time.Hour})

		handle, err := poller.Start(context.Background())
		require.NoError(t, err)
		_, err = poller.Start(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyRunning)
		handle.Release()
	})
}

func TestPoller_Subscribe(t *testing.T) {
	fetcher := &fakeFetcher{next: trained()}
	poller := NewPoller(fetcher, newFakeGate(true), config.StatusConfig{PollInterval: time.Hour})

	updates, cancel := poller.Subscribe()
	defer cancel()

	_, err := poller.ForceRefresh(context.Background())
	require.NoError(t, err)

	select {
	case snapshot := <-updates:
		assert.Equal(t, 100, snapshot.Progress)
	case <-time.After(time.Second):
		t.Fatal("snapshot not published")
	}
}
