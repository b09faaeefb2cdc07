package status

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bizmatters/reasoning-console/internal/broadcast"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/lifecycle"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUnreachable is returned by ForceRefresh when the gate reports the service down
	ErrUnreachable = errors.New("inference service is unreachable")
	// ErrAlreadyRunning is returned by Start while a previous handle is still held
	ErrAlreadyRunning = errors.New("status poller is already running")
)

// Fetcher retrieves the current model status
type Fetcher interface {
	ModelStatus(ctx context.Context) orchestration.Outcome[models.StatusSnapshot]
}

// Gate reports connectivity; polls are only issued while it is reachable
type Gate interface {
	Reachable() bool
	Subscribe() (<-chan models.ConnectivityState, func())
}

// Poller keeps the latest StatusSnapshot. Snapshots are replaced wholesale and only
// by successful polls.
type Poller struct {
	fetcher  Fetcher
	gate     Gate
	interval time.Duration
	tracer   trace.Tracer
	updates  *broadcast.Broadcaster[models.StatusSnapshot]
	snapshot atomic.Pointer[models.StatusSnapshot]

	pollMu  sync.Mutex
	runMu   sync.Mutex
	running bool
}

// NewPoller creates a poller with no snapshot
func NewPoller(fetcher Fetcher, gate Gate, cfg config.StatusConfig) *Poller {
	return &Poller{
		fetcher:  fetcher,
		gate:     gate,
		interval: cfg.PollInterval,
		tracer:   otel.Tracer("status-poller"),
		updates:  broadcast.New[models.StatusSnapshot](),
	}
}

// Snapshot returns the most recent snapshot; ok is false before the first successful poll
func (p *Poller) Snapshot() (models.StatusSnapshot, bool) {
	current := p.snapshot.Load()
	if current == nil {
		return models.StatusSnapshot{}, false
	}
	return *current, true
}

// Trained reports whether the latest snapshot allows prompts
func (p *Poller) Trained() bool {
	snapshot, ok := p.Snapshot()
	return ok && snapshot.Trained()
}

// Subscribe delivers every newly stored snapshot
func (p *Poller) Subscribe() (<-chan models.StatusSnapshot, func()) {
	return p.updates.Subscribe(1)
}

// Start polls on the configured interval while the gate is reachable, and immediately
// whenever the gate turns reachable.
func (p *Poller) Start(ctx context.Context) (*lifecycle.Handle, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.running {
		return nil, ErrAlreadyRunning
	}
	p.running = true

	return lifecycle.Go(ctx, p.run), nil
}

func (p *Poller) run(ctx context.Context) {
	defer func() {
		p.runMu.Lock()
		p.running = false
		p.runMu.Unlock()
	}()

	gateUpdates, unsubscribe := p.gate.Subscribe()
	defer unsubscribe()

	reachable := p.gate.Reachable()
	if reachable {
		p.poll(ctx)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.gate.Reachable() {
				p.poll(ctx)
			}
		case state, ok := <-gateUpdates:
			if !ok {
				gateUpdates = nil
				continue
			}
			if state.Reachable && !reachable {
				p.poll(ctx)
			}
			reachable = state.Reachable
		}
	}
}

// ForceRefresh polls now, bypassing the interval but not the gate
func (p *Poller) ForceRefresh(ctx context.Context) (models.StatusSnapshot, error) {
	if !p.gate.Reachable() {
		return models.StatusSnapshot{}, ErrUnreachable
	}
	return p.poll(ctx)
}

func (p *Poller) poll(ctx context.Context) (models.StatusSnapshot, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	ctx, span := p.tracer.Start(ctx, "status.poll")
	defer span.End()

	out := p.fetcher.ModelStatus(ctx)
	span.SetAttributes(attribute.String("outcome", string(out.Kind)))

	if !out.Ok() {
		err := out.Err()
		span.RecordError(err)
		// failed polls keep the previous snapshot and never touch connectivity
		logger.WithFields(logrus.Fields{"outcome": out.Kind}).Debugf("Status poll failed: %v", err)
		return models.StatusSnapshot{}, err
	}

	snapshot := out.Value
	previous := p.snapshot.Swap(&snapshot)
	span.SetAttributes(
		attribute.String("model.state", string(snapshot.State)),
		attribute.Int("model.progress", snapshot.Progress),
	)

	if previous == nil || previous.State != snapshot.State {
		logger.WithFields(logrus.Fields{
			"state":    snapshot.State,
			"progress": snapshot.Progress,
		}).Info("Model status changed")
	}

	p.updates.Publish(snapshot)
	return snapshot, nil
}

// Close releases all subscribers
func (p *Poller) Close() {
	p.updates.Close()
}
