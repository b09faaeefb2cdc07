package connectivity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProber replays outcomes in order and repeats the last one
type scriptedProber struct {
	mu       sync.Mutex
	outcomes []orchestration.OutcomeKind
	calls    int
	block    chan struct{}
}

func (p *scriptedProber) Health(ctx context.Context, timeout time.Duration) orchestration.Outcome[models.HealthReport] {
	p.mu.Lock()
	idx := min(p.calls, len(p.outcomes)-1)
	p.calls++
	kind := p.outcomes[idx]
	block := p.block
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return orchestration.Outcome[models.HealthReport]{Kind: orchestration.OutcomeTransportError, Detail: "request cancelled"}
		}
	}
	return orchestration.Outcome[models.HealthReport]{Kind: kind}
}

func (p *scriptedProber) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestMonitor(prober Prober, interval time.Duration) *Monitor {
	return NewMonitor(prober, config.ConnectivityConfig{ProbeInterval: interval}, 50*time.Millisecond, nil)
}

func TestMonitor_InitialStateIsUnreachable(t *testing.T) {
	prober := &scriptedProber{outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK}}
	monitor := newTestMonitor(prober, time.Hour)

	state := monitor.State()
	assert.False(t, state.Reachable)
	assert.True(t, state.LastCheckedAt.IsZero())
	assert.Equal(t, 0, prober.Calls())
}

func TestMonitor_NeverReachableBeforeFirstProbeCompletes(t *testing.T) {
	prober := &scriptedProber{
		outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK},
		block:    make(chan struct{}),
	}
	monitor := newTestMonitor(prober, time.Hour)

	handle, err := monitor.Start(context.Background())
	require.NoError(t, err)
	defer handle.Release()

	require.Eventually(t, func() bool { return prober.Calls() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, monitor.Reachable())

	updates, cancel := monitor.Subscribe()
	defer cancel()
	close(prober.block)

	select {
	case state := <-updates:
		assert.True(t, state.Reachable)
	case <-time.After(time.Second):
		t.Fatal("no state published after the first probe")
	}
}

func TestMonitor_ProbeSequenceTransitions(t *testing.T) {
	prober := &scriptedProber{outcomes: []orchestration.OutcomeKind{
		orchestration.OutcomeOK,
		orchestration.OutcomeTimeout,
		orchestration.OutcomeOK,
	}}
	monitor := newTestMonitor(prober, time.Hour)

	observed := []bool{monitor.Reachable()}
	for i := 0; i < 3; i++ {
		observed = append(observed, monitor.Reconnect(context.Background()).Reachable)
	}

	assert.Equal(t, []bool{false, true, false, true}, observed)
	assert.Equal(t, 3, prober.Calls())
}

func TestMonitor_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name              string
		outcome           orchestration.OutcomeKind
		expectedReachable bool
	}{
		{name: "ok", outcome: orchestration.OutcomeOK, expectedReachable: true},
		{name: "service_error_is_reachable", outcome: orchestration.OutcomeServiceError, expectedReachable: true},
		{name: "timeout", outcome: orchestration.OutcomeTimeout, expectedReachable: false},
		{name: "transport_error", outcome: orchestration.OutcomeTransportError, expectedReachable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := newTestMonitor(&scriptedProber{outcomes: []orchestration.OutcomeKind{tt.outcome}}, time.Hour)
			state := monitor.Reconnect(context.Background())

			assert.Equal(t, tt.expectedReachable, state.Reachable)
			assert.False(t, state.LastCheckedAt.IsZero())
		})
	}
}

func TestMonitor_ConsecutiveFailures(t *testing.T) {
	prober := &scriptedProber{outcomes: []orchestration.OutcomeKind{
		orchestration.OutcomeTimeout,
		orchestration.OutcomeTransportError,
		orchestration.OutcomeTimeout,
		orchestration.OutcomeOK,
	}}
	monitor := newTestMonitor(prober, time.Hour)

	var failures []int
	for i := 0; i < 4; i++ {
		failures = append(failures, monitor.Reconnect(context.Background()).ConsecutiveFailures)
	}
	assert.Equal(t, []int{1, 2, 3, 0}, failures)
}

func TestMonitor_Lifecycle(t *testing.T) {
	t.Run("second start is rejected while running", func(t *testing.T) {
		monitor := newTestMonitor(&scriptedProber{outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK}}, time.Hour)

		handle, err := monitor.Start(context.Background())
		require.NoError(t, err)

		_, err = monitor.Start(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyRunning)

		handle.Release()
		handle.Release()

		again, err := monitor.Start(context.Background())
		require.NoError(t, err)
		again.Release()
	})

	t.Run("probes on the interval and stops on release", func(t *testing.T) {
		prober := &scriptedProber{outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK}}
		monitor := newTestMonitor(prober, 10*time.Millisecond)

		handle, err := monitor.Start(context.Background())
		require.NoError(t, err)

		require.Eventually(t, func() bool { return prober.Calls() >= 3 }, time.Second, 5*time.Millisecond)
		handle.Release()

		select {
		case <-handle.Done():
		default:
			t.Fatal("loop still running after release")
		}

		stopped := prober.Calls()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, stopped, prober.Calls())
	})

	t.Run("probe interrupted by release is discarded", func(t *testing.T) {
		prober := &scriptedProber{
			outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK},
			block:    make(chan struct{}),
		}
		monitor := newTestMonitor(prober, time.Hour)

		handle, err := monitor.Start(context.Background())
		require.NoError(t, err)
		require.Eventually(t, func() bool { return prober.Calls() == 1 }, time.Second, 5*time.Millisecond)

		handle.Release()
		state := monitor.State()
		assert.False(t, state.Reachable)
		assert.Equal(t, 0, state.ConsecutiveFailures)
		assert.True(t, state.LastCheckedAt.IsZero())
	})
}

func TestMonitor_Backoff(t *testing.T) {
	monitor := NewMonitor(nil, config.ConnectivityConfig{
		ProbeInterval: time.Second,
		BackoffMax:    5 * time.Second,
	}, time.Second, nil)

	tests := []struct {
		failures int
		expected time.Duration
	}{
		{failures: 0, expected: time.Second},
		{failures: 1, expected: time.Second},
		{failures: 2, expected: 2 * time.Second},
		{failures: 3, expected: 4 * time.Second},
		{failures: 4, expected: 5 * time.Second},
		{failures: 40, expected: 5 * time.Second},
	}

	for _, tt := range tests {
		monitor.state = models.ConnectivityState{ConsecutiveFailures: tt.failures}
		assert.Equal(t, tt.expected, monitor.nextDelay(), "failures=%d", tt.failures)
	}

	t.Run("disabled backoff keeps the fixed cadence", func(t *testing.T) {
		fixed := NewMonitor(nil, config.ConnectivityConfig{ProbeInterval: time.Second}, time.Second, nil)
		fixed.state = models.ConnectivityState{ConsecutiveFailures: 10}
		assert.Equal(t, time.Second, fixed.nextDelay())
	})
}

func TestMonitor_SubscribersSeeEveryProbe(t *testing.T) {
	prober := &scriptedProber{outcomes: []orchestration.OutcomeKind{orchestration.OutcomeOK}}
	monitor := newTestMonitor(prober, time.Hour)

	updates, cancel := monitor.Subscribe()
	defer cancel()

	monitor.Reconnect(context.Background())
	select {
	case state := <-updates:
		assert.True(t, state.Reachable)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}

	// an unchanged result is still published
	monitor.Reconnect(context.Background())
	select {
	case state := <-updates:
		assert.True(t, state.Reachable)
	case <-time.After(time.Second):
		t.Fatal("no update delivered")
	}
}
