package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/metrics"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrPlaybackInProgress is returned when a playback is requested while one is running
var ErrPlaybackInProgress = errors.New("playback already in progress")

// FetchFunc produces the full step batch for a prompt
type FetchFunc func(ctx context.Context) ([]models.ConversationStep, error)

// DelayFunc waits d or until ctx is done
type DelayFunc func(ctx context.Context, d time.Duration) error

// Sink receives every change to the message log, in order. It is called from the
// playback goroutine and must not call back into the queue.
type Sink func(event models.SessionEvent) error

// SleepCtx is the default DelayFunc
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Queue owns the display log and replays step batches one placeholder at a time.
// At most one playback runs at once; requests made while busy are rejected.
type Queue struct {
	minDelay time.Duration
	maxDelay time.Duration
	delay    DelayFunc
	jitter   func() time.Duration
	metrics  *metrics.SessionMetrics
	tracer   trace.Tracer

	// emitMu keeps sink delivery in log order
	emitMu sync.Mutex
	sink   Sink

	mu       sync.RWMutex
	messages []models.DisplayMessage
	progress models.Progress
	busy     bool
	idle     chan struct{}
}

// NewQueue creates an idle queue. sink may be nil.
func NewQueue(cfg config.PlaybackConfig, sink Sink, sessionMetrics *metrics.SessionMetrics) *Queue {
	idle := make(chan struct{})
	close(idle)

	q := &Queue{
		minDelay: cfg.MinStepDelay,
		maxDelay: cfg.MaxStepDelay,
		delay:    SleepCtx,
		metrics:  sessionMetrics,
		tracer:   otel.Tracer("playback-queue"),
		sink:     sink,
		idle:     idle,
	}
	q.jitter = q.uniformDelay
	return q
}

// SetDelayFunc replaces the wait between steps, e.g. with a no-op in tests
func (q *Queue) SetDelayFunc(delay DelayFunc) {
	q.delay = delay
}

// SetJitter replaces the source of per-step delays
func (q *Queue) SetJitter(jitter func() time.Duration) {
	q.jitter = jitter
}

func (q *Queue) uniformDelay() time.Duration {
	if q.maxDelay <= q.minDelay {
		return q.minDelay
	}
	return q.minDelay + rand.N(q.maxDelay-q.minDelay+1)
}

// Messages returns a copy of the display log
func (q *Queue) Messages() []models.DisplayMessage {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]models.DisplayMessage, len(q.messages))
	copy(out, q.messages)
	return out
}

// Progress returns the current (resolved, total) pair; (0,0) while idle
func (q *Queue) Progress() models.Progress {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.progress
}

// Busy reports whether a playback is running
func (q *Queue) Busy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.busy
}

// Wait blocks until no playback is running or ctx is done
func (q *Queue) Wait(ctx context.Context) error {
	q.mu.RLock()
	idle := q.idle
	q.mu.RUnlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reject appends one resolved system message and starts nothing
func (q *Queue) Reject(content string) models.DisplayMessage {
	return q.appendResolved(models.StepSystem, content)
}

// Clear empties the display log. It fails while a playback is running.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.busy {
		return ErrPlaybackInProgress
	}
	q.messages = nil
	return nil
}

// Play starts a playback for prompt in the background. The batch is produced by fetch.
// If a playback is already running a system message is appended instead and
// ErrPlaybackInProgress is returned.
func (q *Queue) Play(ctx context.Context, prompt string, fetch FetchFunc) error {
	q.mu.Lock()
	if q.busy {
		q.mu.Unlock()
		q.Reject("A response is still being generated. Wait for it to finish before sending another prompt.")
		return ErrPlaybackInProgress
	}
	q.busy = true
	done := make(chan struct{})
	q.idle = done
	q.mu.Unlock()

	q.metrics.RecordPlaybackStarted(ctx)
	go q.run(ctx, prompt, fetch, done)
	return nil
}

func (q *Queue) run(ctx context.Context, prompt string, fetch FetchFunc, done chan struct{}) {
	ctx, span := q.tracer.Start(ctx, "playback.run")
	defer span.End()

	result := "completed"
	defer func() {
		q.finish(ctx, result)
		close(done)
	}()

	q.emit(func() models.SessionEvent {
		return models.SessionEvent{Type: models.EventPlaybackStarted, Timestamp: time.Now()}
	})

	steps, err := fetch(ctx)
	if err != nil {
		result = "failed"
		span.RecordError(err)
		logger.WithFields(logrus.Fields{"error": err}).Warn("Reasoning request failed")
		q.appendResolved(models.StepSystem, fmt.Sprintf("Error processing the prompt: %v. Try again.", err))
		return
	}

	total := len(steps)
	span.SetAttributes(attribute.Int("steps", total))

	q.appendResolved(models.StepUser, prompt)

	skipDelays := false
	for i, step := range steps {
		index := q.appendPending(step.Kind)

		if !skipDelays {
			if err := q.delay(ctx, q.jitter()); err != nil {
				// teardown: resolve the rest without waiting
				skipDelays = true
				result = "cancelled"
			}
		}

		q.resolve(index, step, models.Progress{Current: i + 1, Total: total})
		q.metrics.RecordStepResolved(ctx, string(step.Kind))
	}
}

func (q *Queue) appendResolved(kind models.StepKind, content string) models.DisplayMessage {
	var msg models.DisplayMessage
	q.emit(func() models.SessionEvent {
		msg = models.DisplayMessage{
			ID:         uuid.NewString(),
			Index:      len(q.messages),
			Kind:       kind,
			Content:    content,
			ProducedAt: time.Now(),
		}
		q.messages = append(q.messages, msg)
		return models.SessionEvent{Type: models.EventMessageAppended, Message: &msg, Timestamp: msg.ProducedAt}
	})
	return msg
}

func (q *Queue) appendPending(kind models.StepKind) int {
	var index int
	q.emit(func() models.SessionEvent {
		index = len(q.messages)
		msg := models.DisplayMessage{
			ID:      uuid.NewString(),
			Index:   index,
			Kind:    kind,
			Pending: true,
		}
		q.messages = append(q.messages, msg)
		return models.SessionEvent{Type: models.EventMessageAppended, Message: &msg, Timestamp: time.Now()}
	})
	return index
}

func (q *Queue) resolve(index int, step models.ConversationStep, progress models.Progress) {
	q.emit(func() models.SessionEvent {
		msg := &q.messages[index]
		msg.Content = step.Content
		msg.Pending = false
		msg.ProducedAt = step.ProducedAt
		if msg.ProducedAt.IsZero() {
			msg.ProducedAt = time.Now()
		}
		resolved := *msg
		return models.SessionEvent{Type: models.EventMessageResolved, Message: &resolved, Timestamp: time.Now()}
	})
	q.emit(func() models.SessionEvent {
		q.progress = progress
		p := progress
		return models.SessionEvent{Type: models.EventProgress, Progress: &p, Timestamp: time.Now()}
	})
}

func (q *Queue) finish(ctx context.Context, result string) {
	q.emit(func() models.SessionEvent {
		q.busy = false
		q.progress = models.Progress{}
		return models.SessionEvent{Type: models.EventPlaybackFinished, Progress: &models.Progress{}, Timestamp: time.Now()}
	})
	q.metrics.RecordPlaybackFinished(ctx, result)
}

// emit applies change under the log lock and hands the resulting event to the sink
func (q *Queue) emit(change func() models.SessionEvent) {
	q.emitMu.Lock()
	defer q.emitMu.Unlock()

	q.mu.Lock()
	event := change()
	q.mu.Unlock()

	if q.sink == nil {
		return
	}
	if err := q.sink(event); err != nil {
		logger.WithFields(logrus.Fields{
			"event": event.Type,
			"error": err,
		}).Warn("Playback sink failed, detaching it")
		q.sink = nil
	}
}
