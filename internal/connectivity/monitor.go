package connectivity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bizmatters/reasoning-console/internal/broadcast"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/lifecycle"
	"github.com/bizmatters/reasoning-console/internal/metrics"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrAlreadyRunning is returned by Start while a previous handle is still held
var ErrAlreadyRunning = errors.New("connectivity monitor is already running")

// Prober performs one liveness probe against the remote service
type Prober interface {
	Health(ctx context.Context, timeout time.Duration) orchestration.Outcome[models.HealthReport]
}

// Monitor tracks whether the remote service is reachable. It is the only writer of
// its ConnectivityState; everyone else reads copies.
type Monitor struct {
	prober       Prober
	interval     time.Duration
	probeTimeout time.Duration
	backoffMax   time.Duration
	metrics      *metrics.SessionMetrics
	tracer       trace.Tracer
	updates      *broadcast.Broadcaster[models.ConnectivityState]

	// probeMu serializes the loop and Reconnect
	probeMu sync.Mutex

	mu      sync.RWMutex
	state   models.ConnectivityState
	running bool
}

// NewMonitor creates a monitor in the UNREACHABLE state. No probe is issued until
// Start or Reconnect.
func NewMonitor(prober Prober, cfg config.ConnectivityConfig, probeTimeout time.Duration, sessionMetrics *metrics.SessionMetrics) *Monitor {
	return &Monitor{
		prober:       prober,
		interval:     cfg.ProbeInterval,
		probeTimeout: probeTimeout,
		backoffMax:   cfg.BackoffMax,
		metrics:      sessionMetrics,
		tracer:       otel.Tracer("connectivity-monitor"),
		updates:      broadcast.New[models.ConnectivityState](),
	}
}

// State returns a copy of the current connectivity state
func (m *Monitor) State() models.ConnectivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reachable reports whether the most recent probe succeeded
func (m *Monitor) Reachable() bool {
	return m.State().Reachable
}

// Subscribe delivers the state after every probe. Slow subscribers only see the latest.
func (m *Monitor) Subscribe() (<-chan models.ConnectivityState, func()) {
	return m.updates.Subscribe(1)
}

// Start probes immediately and then on the configured interval until the handle is
// released or ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) (*lifecycle.Handle, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	m.running = true
	m.mu.Unlock()

	h := lifecycle.Go(ctx, m.run)

	logger.WithFields(logrus.Fields{
		"interval":      m.interval,
		"probe_timeout": m.probeTimeout,
	}).Info("Connectivity monitor started")

	return h, nil
}

func (m *Monitor) run(ctx context.Context) {
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		logger.Info("Connectivity monitor stopped")
	}()

	m.probe(ctx)

	for {
		timer := time.NewTimer(m.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		m.probe(ctx)
	}
}

// nextDelay is the probe interval, stretched exponentially while unreachable when a
// backoff cap above the interval is configured
func (m *Monitor) nextDelay() time.Duration {
	state := m.State()
	if m.backoffMax <= m.interval || state.Reachable || state.ConsecutiveFailures <= 1 {
		return m.interval
	}

	delay := m.interval
	for i := 1; i < state.ConsecutiveFailures && delay < m.backoffMax; i++ {
		delay *= 2
	}
	return min(delay, m.backoffMax)
}

// Reconnect issues one probe outside the regular cadence and returns the resulting state
func (m *Monitor) Reconnect(ctx context.Context) models.ConnectivityState {
	logger.Info("Manual reconnect requested")
	return m.probe(ctx)
}

func (m *Monitor) probe(ctx context.Context) models.ConnectivityState {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	ctx, span := m.tracer.Start(ctx, "connectivity.probe")
	defer span.End()

	out := m.prober.Health(ctx, m.probeTimeout)

	// a probe interrupted by shutdown says nothing about the service
	if ctx.Err() != nil && !out.Ok() {
		span.SetAttributes(attribute.Bool("discarded", true))
		return m.State()
	}

	// the service answering with an error status is still reachable
	reachable := out.Kind == orchestration.OutcomeOK || out.Kind == orchestration.OutcomeServiceError

	m.mu.Lock()
	previous := m.state.Reachable
	m.state.Reachable = reachable
	m.state.LastCheckedAt = time.Now()
	if reachable {
		m.state.ConsecutiveFailures = 0
	} else {
		m.state.ConsecutiveFailures++
	}
	state := m.state
	m.mu.Unlock()

	changed := previous != reachable
	span.SetAttributes(
		attribute.String("outcome", string(out.Kind)),
		attribute.Bool("reachable", reachable),
		attribute.Int("consecutive_failures", state.ConsecutiveFailures),
	)
	m.metrics.RecordProbe(ctx, string(out.Kind), reachable, changed)

	if changed {
		fields := logrus.Fields{"outcome": out.Kind}
		if reachable {
			logger.WithFields(fields).Info("Inference service is reachable")
		} else {
			fields["detail"] = out.Detail
			logger.WithFields(fields).Warn("Inference service is unreachable")
		}
	}

	m.updates.Publish(state)
	return state
}

// Close releases all subscribers. The monitor must not be started afterwards.
func (m *Monitor) Close() {
	m.updates.Close()
}
