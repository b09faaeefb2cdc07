package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bizmatters/reasoning-console/internal/broadcast"
	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/connectivity"
	"github.com/bizmatters/reasoning-console/internal/lifecycle"
	"github.com/bizmatters/reasoning-console/internal/metrics"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/internal/playback"
	"github.com/bizmatters/reasoning-console/internal/status"
	"github.com/bizmatters/reasoning-console/internal/transcript"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgUnreachable = "The inference service is unreachable. Check the connection and press reconnect."
	msgNotTrained  = "No trained model is available. Train a model first."

	storeTimeout = 5 * time.Second
)

// View is a consistent copy of everything a renderer needs
type View struct {
	SessionID    string                   `json:"session_id"`
	Connectivity models.ConnectivityState `json:"connectivity"`
	Status       *models.StatusSnapshot   `json:"status,omitempty"`
	Busy         bool                     `json:"busy"`
	CanSubmit    bool                     `json:"can_submit"`
	Progress     models.Progress          `json:"progress"`
	NominalSteps int                      `json:"nominal_steps"`
	Messages     []models.DisplayMessage  `json:"messages"`
}

// Controller owns one reasoning session: connectivity, model status, the playback
// queue and the transcript.
type Controller struct {
	id           string
	client       orchestration.InferenceClientInterface
	monitor      *connectivity.Monitor
	poller       *status.Poller
	queue        *playback.Queue
	store        transcript.Store
	events       *broadcast.Broadcaster[models.SessionEvent]
	nominalSteps int
	tracer       trace.Tracer

	mu          sync.Mutex
	playCtx     context.Context
	cancelPlays context.CancelFunc
}

// NewController wires a session around client. store may be nil.
func NewController(client orchestration.InferenceClientInterface, cfg *config.Config, store transcript.Store, sessionMetrics *metrics.SessionMetrics) *Controller {
	c := &Controller{
		id:           uuid.NewString(),
		client:       client,
		store:        store,
		events:       broadcast.New[models.SessionEvent](),
		nominalSteps: cfg.Playback.NominalSteps,
		tracer:       otel.Tracer("session-controller"),
	}

	c.monitor = connectivity.NewMonitor(client, cfg.Connectivity, cfg.Service.ProbeTimeout, sessionMetrics)
	c.poller = status.NewPoller(client, c.monitor, cfg.Status)
	c.queue = playback.NewQueue(cfg.Playback, c.deliver, sessionMetrics)
	c.playCtx, c.cancelPlays = context.WithCancel(context.Background())

	return c
}

// ID returns the session identifier used in events and the transcript
func (c *Controller) ID() string {
	return c.id
}

// SetDelayFunc replaces the wait between playback steps
func (c *Controller) SetDelayFunc(delay playback.DelayFunc) {
	c.queue.SetDelayFunc(delay)
}

// Start runs the connectivity monitor and the status poller. Releasing the handle
// stops both, cancels any running playback and waits for it to drain.
func (c *Controller) Start(ctx context.Context) (*lifecycle.Handle, error) {
	connUpdates, unsubscribeConn := c.monitor.Subscribe()
	statusUpdates, unsubscribeStatus := c.poller.Subscribe()

	monitorHandle, err := c.monitor.Start(ctx)
	if err != nil {
		unsubscribeConn()
		unsubscribeStatus()
		return nil, err
	}

	pollerHandle, err := c.poller.Start(ctx)
	if err != nil {
		monitorHandle.Release()
		unsubscribeConn()
		unsubscribeStatus()
		return nil, err
	}

	c.mu.Lock()
	c.cancelPlays()
	c.playCtx, c.cancelPlays = context.WithCancel(context.Background())
	c.mu.Unlock()

	logger.WithFields(logrus.Fields{"session_id": c.id}).Info("Session started")

	return lifecycle.Go(ctx, func(loopCtx context.Context) {
		defer func() {
			pollerHandle.Release()
			monitorHandle.Release()
			unsubscribeConn()
			unsubscribeStatus()

			c.mu.Lock()
			c.cancelPlays()
			c.mu.Unlock()
			_ = c.queue.Wait(context.Background())

			logger.WithFields(logrus.Fields{"session_id": c.id}).Info("Session stopped")
		}()

		for {
			select {
			case <-loopCtx.Done():
				return
			case state, ok := <-connUpdates:
				if !ok {
					return
				}
				c.publish(models.SessionEvent{Type: models.EventConnectivity, Connectivity: &state, Timestamp: time.Now()})
			case snapshot, ok := <-statusUpdates:
				if !ok {
					return
				}
				c.publish(models.SessionEvent{Type: models.EventStatus, Status: &snapshot, Timestamp: time.Now()})
			}
		}
	}), nil
}

// Submit validates req and starts its playback in the background. Every rejection
// except an empty prompt appends one system message. A nil error means the
// playback was accepted.
func (c *Controller) Submit(ctx context.Context, req PromptRequest) error {
	ctx, span := c.tracer.Start(ctx, "session.submit")
	defer span.End()

	reasoningReq, err := req.reasoningRequest()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) && !errors.Is(err, ErrEmptyPrompt) {
			c.queue.Reject(verr.Message)
		}
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.Int("max_length", reasoningReq.MaxLength),
		attribute.String("response_style", reasoningReq.ResponseStyle),
	)

	if !c.monitor.Reachable() {
		c.queue.Reject(msgUnreachable)
		return &ValidationError{Reason: ErrServiceUnreachable, Message: msgUnreachable}
	}

	if !c.poller.Trained() {
		c.queue.Reject(msgNotTrained)
		return &ValidationError{Reason: ErrModelNotTrained, Message: msgNotTrained}
	}

	fetch := func(ctx context.Context) ([]models.ConversationStep, error) {
		out := c.client.ChatbotReasoning(ctx, reasoningReq)
		if !out.Ok() {
			return nil, out.Err()
		}
		return out.Value.Messages, nil
	}

	c.mu.Lock()
	playCtx := c.playCtx
	c.mu.Unlock()

	if err := c.queue.Play(playCtx, reasoningReq.Prompt, fetch); err != nil {
		return &ValidationError{Reason: err, Message: "A response is still being generated."}
	}

	logger.WithFields(logrus.Fields{
		"session_id":      c.id,
		"max_length":      reasoningReq.MaxLength,
		"temperature":     reasoningReq.Temperature,
		"reasoning_depth": reasoningReq.ReasoningDepth,
		"response_style":  reasoningReq.ResponseStyle,
	}).Info("Prompt accepted")

	return nil
}

// Reconnect probes the service immediately and, when it is reachable, refreshes
// the model status as well
func (c *Controller) Reconnect(ctx context.Context) models.ConnectivityState {
	state := c.monitor.Reconnect(ctx)
	if state.Reachable {
		if _, err := c.poller.ForceRefresh(ctx); err != nil {
			logger.Debugf("Status refresh after reconnect failed: %v", err)
		}
	}
	return state
}

// RefreshStatus polls the model status now; it fails with status.ErrUnreachable
// without a network call while the service is unreachable
func (c *Controller) RefreshStatus(ctx context.Context) (models.StatusSnapshot, error) {
	return c.poller.ForceRefresh(ctx)
}

// ClearMessages empties the display log unless a playback is running
func (c *Controller) ClearMessages() error {
	return c.queue.Clear()
}

// View returns a copy of the session state
func (c *Controller) View() View {
	connectivityState := c.monitor.State()
	busy := c.queue.Busy()

	view := View{
		SessionID:    c.id,
		Connectivity: connectivityState,
		Busy:         busy,
		Progress:     c.queue.Progress(),
		NominalSteps: c.nominalSteps,
		Messages:     c.queue.Messages(),
	}

	if snapshot, ok := c.poller.Snapshot(); ok {
		view.Status = &snapshot
	}
	view.CanSubmit = connectivityState.Reachable && view.Status != nil && view.Status.Trained() && !busy

	return view
}

// Subscribe delivers every session event in order. A subscriber that falls more
// than buffer events behind loses the oldest ones.
func (c *Controller) Subscribe(buffer int) (<-chan models.SessionEvent, func()) {
	return c.events.Subscribe(buffer)
}

// Transcript returns the recorded messages of this session
func (c *Controller) Transcript(ctx context.Context) ([]models.DisplayMessage, error) {
	if c.store == nil {
		return nil, nil
	}
	messages, err := c.store.List(ctx, c.id)
	if errors.Is(err, transcript.ErrSessionNotFound) {
		return []models.DisplayMessage{}, nil
	}
	return messages, err
}

// Wait blocks until no playback is running
func (c *Controller) Wait(ctx context.Context) error {
	return c.queue.Wait(ctx)
}

// Close releases every subscriber. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelPlays()
	c.mu.Unlock()

	c.monitor.Close()
	c.poller.Close()
	c.events.Close()
}

// deliver is the playback sink: resolved messages go to the transcript, every event
// goes to subscribers
func (c *Controller) deliver(event models.SessionEvent) error {
	if event.Message != nil && !event.Message.Pending && c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		err := c.store.Append(ctx, c.id, *event.Message)
		cancel()
		if err != nil {
			logger.WithFields(logrus.Fields{
				"session_id": c.id,
				"message_id": event.Message.ID,
				"error":      err,
			}).Warn("Failed to record transcript message")
		}
	}

	c.publish(event)
	return nil
}

func (c *Controller) publish(event models.SessionEvent) {
	event.SessionID = c.id
	c.events.Publish(event)
}
