package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/orchestration"
	"github.com/bizmatters/reasoning-console/internal/status"
	"github.com/bizmatters/reasoning-console/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scripted inference service
type fakeClient struct {
	mu         sync.Mutex
	healthKind orchestration.OutcomeKind
	state      models.ModelState
	steps      []models.ConversationStep
	chatKind   orchestration.OutcomeKind
	chatGate   chan struct{}
	lastReq    models.ReasoningRequest

	healthCalls atomic.Int32
	statusCalls atomic.Int32
	chatCalls   atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		healthKind: orchestration.OutcomeOK,
		state:      models.ModelTrained,
		chatKind:   orchestration.OutcomeOK,
		steps: []models.ConversationStep{
			{Kind: models.StepAnalysis, Content: "A"},
			{Kind: models.StepFinalResponse, Content: "B"},
		},
	}
}

func (f *fakeClient) Health(ctx context.Context, timeout time.Duration) orchestration.Outcome[models.HealthReport] {
	f.healthCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return orchestration.Outcome[models.HealthReport]{Kind: f.healthKind, Value: models.HealthReport{Status: "healthy"}}
}

func (f *fakeClient) ModelStatus(ctx context.Context) orchestration.Outcome[models.StatusSnapshot] {
	f.statusCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return orchestration.Outcome[models.StatusSnapshot]{
		Kind:  orchestration.OutcomeOK,
		Value: models.StatusSnapshot{State: f.state, Progress: 100},
	}
}

func (f *fakeClient) ChatbotReasoning(ctx context.Context, req models.ReasoningRequest) orchestration.Outcome[models.ReasoningResponse] {
	f.chatCalls.Add(1)
	f.mu.Lock()
	f.lastReq = req
	gate := f.chatGate
	kind := f.chatKind
	steps := f.steps
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if kind != orchestration.OutcomeOK {
		return orchestration.Outcome[models.ReasoningResponse]{Kind: kind, Detail: "no response within 30s"}
	}
	return orchestration.Outcome[models.ReasoningResponse]{
		Kind:  orchestration.OutcomeOK,
		Value: models.ReasoningResponse{Messages: steps},
	}
}

func (f *fakeClient) resetCounters() {
	f.healthCalls.Store(0)
	f.statusCalls.Store(0)
	f.chatCalls.Store(0)
}

func (f *fakeClient) networkCalls() int32 {
	return f.healthCalls.Load() + f.statusCalls.Load() + f.chatCalls.Load()
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Connectivity.ProbeInterval = time.Hour
	cfg.Status.PollInterval = time.Hour
	return cfg
}

func newTestController(t *testing.T, client *fakeClient, store transcript.Store) *Controller {
	t.Helper()
	c := NewController(client, testConfig(), store, nil)
	c.SetDelayFunc(func(ctx context.Context, d time.Duration) error { return nil })
	t.Cleanup(c.Close)
	return c
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}

func TestController_SubmitGates(t *testing.T) {
	t.Run("empty prompt appends nothing", func(t *testing.T) {
		client := newFakeClient()
		c := newTestController(t, client, nil)
		c.Reconnect(context.Background())
		client.resetCounters()

		err := c.Submit(context.Background(), PromptRequest{Prompt: "   \n"})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Empty(t, c.View().Messages)
		assert.Equal(t, int32(0), client.networkCalls())
	})

	t.Run("invalid parameters append one message", func(t *testing.T) {
		client := newFakeClient()
		c := newTestController(t, client, nil)
		c.Reconnect(context.Background())
		client.resetCounters()

		err := c.Submit(context.Background(), PromptRequest{Prompt: "hola", MaxLength: 500, ResponseStyle: "poetic"})
		assert.ErrorIs(t, err, ErrInvalidParameter)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "max_length")
		assert.Contains(t, verr.Message, "response_style")

		messages := c.View().Messages
		require.Len(t, messages, 1)
		assert.Equal(t, models.StepSystem, messages[0].Kind)
		assert.Equal(t, int32(0), client.networkCalls())
	})

	t.Run("unreachable service", func(t *testing.T) {
		client := newFakeClient()
		c := newTestController(t, client, nil)

		err := c.Submit(context.Background(), PromptRequest{Prompt: "hola"})
		assert.ErrorIs(t, err, ErrServiceUnreachable)
		assert.Len(t, c.View().Messages, 1)
		assert.Equal(t, int32(0), client.networkCalls())
	})

	t.Run("model not trained makes no network call", func(t *testing.T) {
		client := newFakeClient()
		client.state = models.ModelIdle
		c := newTestController(t, client, nil)
		c.Reconnect(context.Background())
		client.resetCounters()

		err := c.Submit(context.Background(), PromptRequest{Prompt: "hola"})
		assert.ErrorIs(t, err, ErrModelNotTrained)

		messages := c.View().Messages
		require.Len(t, messages, 1)
		assert.Equal(t, models.StepSystem, messages[0].Kind)
		assert.Equal(t, msgNotTrained, messages[0].Content)
		assert.Equal(t, int32(0), client.networkCalls())
	})

	t.Run("submit while playing is rejected", func(t *testing.T) {
		client := newFakeClient()
		client.chatGate = make(chan struct{})
		c := newTestController(t, client, nil)
		c.Reconnect(context.Background())

		require.NoError(t, c.Submit(context.Background(), PromptRequest{Prompt: "primera"}))
		require.Eventually(t, func() bool { return client.chatCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

		err := c.Submit(context.Background(), PromptRequest{Prompt: "segunda"})
		assert.ErrorIs(t, err, ErrPlaybackInProgress)
		assert.False(t, c.View().CanSubmit)

		close(client.chatGate)
		waitIdle(t, c)
		assert.Equal(t, int32(1), client.chatCalls.Load())
	})
}

func TestController_AcceptedPlayback(t *testing.T) {
	client := newFakeClient()
	store := transcript.NewMemoryStore()
	c := newTestController(t, client, store)

	state := c.Reconnect(context.Background())
	require.True(t, state.Reachable)
	require.True(t, c.View().CanSubmit)

	events, unsubscribe := c.Subscribe(64)
	defer unsubscribe()

	require.NoError(t, c.Submit(context.Background(), PromptRequest{Prompt: "  ¿Qué es la acuaponía?  "}))
	waitIdle(t, c)

	client.mu.Lock()
	sent := client.lastReq
	client.mu.Unlock()
	assert.Equal(t, models.ReasoningRequest{
		Prompt:         "¿Qué es la acuaponía?",
		MaxLength:      DefaultMaxLength,
		Temperature:    DefaultTemperature,
		ReasoningDepth: DefaultReasoningDepth,
		ResponseStyle:  DefaultResponseStyle,
	}, sent)

	view := c.View()
	require.Len(t, view.Messages, 3)
	assert.Equal(t, models.StepUser, view.Messages[0].Kind)
	assert.Equal(t, "A", view.Messages[1].Content)
	assert.Equal(t, "B", view.Messages[2].Content)
	assert.Equal(t, models.Progress{}, view.Progress)
	assert.False(t, view.Busy)
	assert.Equal(t, 7, view.NominalSteps)

	recorded, err := c.Transcript(context.Background())
	require.NoError(t, err)
	assert.Equal(t, view.Messages, recorded)

	var last models.SessionEvent
	drained := 0
	for drained < 64 {
		select {
		case ev := <-events:
			assert.Equal(t, c.ID(), ev.SessionID)
			last = ev
			drained++
			continue
		default:
		}
		break
	}
	assert.Equal(t, models.EventPlaybackFinished, last.Type)
}

func TestController_FetchFailure(t *testing.T) {
	client := newFakeClient()
	client.chatKind = orchestration.OutcomeTimeout
	c := newTestController(t, client, nil)
	c.Reconnect(context.Background())

	require.NoError(t, c.Submit(context.Background(), PromptRequest{Prompt: "hola"}))
	waitIdle(t, c)

	messages := c.View().Messages
	require.Len(t, messages, 1)
	assert.Equal(t, models.StepSystem, messages[0].Kind)
	assert.Contains(t, messages[0].Content, "request timed out")
}

func TestController_RefreshStatus(t *testing.T) {
	client := newFakeClient()
	c := newTestController(t, client, nil)

	_, err := c.RefreshStatus(context.Background())
	assert.ErrorIs(t, err, status.ErrUnreachable)
	assert.Equal(t, int32(0), client.statusCalls.Load())

	c.Reconnect(context.Background())
	snapshot, err := c.RefreshStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModelTrained, snapshot.State)
}

func TestController_Lifecycle(t *testing.T) {
	t.Run("start publishes connectivity and status", func(t *testing.T) {
		client := newFakeClient()
		c := newTestController(t, client, nil)

		events, unsubscribe := c.Subscribe(16)
		defer unsubscribe()

		handle, err := c.Start(context.Background())
		require.NoError(t, err)
		defer handle.Release()

		seen := map[models.EventType]bool{}
		timeout := time.After(2 * time.Second)
		for !(seen[models.EventConnectivity] && seen[models.EventStatus]) {
			select {
			case ev := <-events:
				seen[ev.Type] = true
			case <-timeout:
				t.Fatalf("missing session events, saw %v", seen)
			}
		}
		assert.True(t, c.View().CanSubmit)
	})

	t.Run("second start fails", func(t *testing.T) {
		c := newTestController(t, newFakeClient(), nil)

		handle, err := c.Start(context.Background())
		require.NoError(t, err)
		defer handle.Release()

		_, err = c.Start(context.Background())
		assert.Error(t, err)
	})

	t.Run("release drains a running playback", func(t *testing.T) {
		client := newFakeClient()
		c := NewController(client, testConfig(), nil, nil)
		defer c.Close()

		handle, err := c.Start(context.Background())
		require.NoError(t, err)
		require.Eventually(t, func() bool { return c.View().CanSubmit }, 2*time.Second, 5*time.Millisecond)

		// real delays: teardown has to skip them
		require.NoError(t, c.Submit(context.Background(), PromptRequest{Prompt: "hola"}))
		handle.Release()

		view := c.View()
		assert.False(t, view.Busy)
		require.Len(t, view.Messages, 3)
		for _, msg := range view.Messages {
			assert.False(t, msg.Pending)
		}
	})
}

func TestPromptRequest_Validation(t *testing.T) {
	tests := []struct {
		name        string
		req         PromptRequest
		expectedErr error
	}{
		{name: "defaults", req: PromptRequest{Prompt: "hola"}},
		{name: "bounds_low", req: PromptRequest{Prompt: "hola", MaxLength: 10, Temperature: 0.1, ReasoningDepth: 1, ResponseStyle: "concise"}},
		{name: "bounds_high", req: PromptRequest{Prompt: "hola", MaxLength: 100, Temperature: 2.0, ReasoningDepth: 5, ResponseStyle: "Creative"}},
		{name: "empty", req: PromptRequest{Prompt: ""}, expectedErr: ErrEmptyPrompt},
		{name: "max_length_low", req: PromptRequest{Prompt: "hola", MaxLength: 9}, expectedErr: ErrInvalidParameter},
		{name: "temperature_high", req: PromptRequest{Prompt: "hola", Temperature: 2.5}, expectedErr: ErrInvalidParameter},
		{name: "depth_high", req: PromptRequest{Prompt: "hola", ReasoningDepth: 6}, expectedErr: ErrInvalidParameter},
		{name: "unknown_style", req: PromptRequest{Prompt: "hola", ResponseStyle: "poetic"}, expectedErr: ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.reasoningRequest()
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}
