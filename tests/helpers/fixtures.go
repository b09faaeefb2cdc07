package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/models"
)

// DefaultReasoningSteps is the step batch the fake service answers every prompt with
var DefaultReasoningSteps = []map[string]string{
	{"type": "analysis", "content": "Analizando la pregunta sobre acuaponía", "timestamp": "2024-05-01T10:00:00.123456"},
	{"type": "patterns", "content": "Patrones relevantes: agua, peces, plantas", "timestamp": "2024-05-01T10:00:00.223456"},
	{"type": "reasoning", "content": "Los peces aportan nutrientes a las plantas", "timestamp": "2024-05-01T10:00:00.323456"},
	{"type": "base_response", "content": "La acuaponía combina acuicultura e hidroponía", "timestamp": "2024-05-01T10:00:00.423456"},
	{"type": "final_response", "content": "La acuaponía es un sistema cerrado donde peces y plantas se benefician mutuamente", "timestamp": "not-a-timestamp"},
}

// InferenceService is a stateful stand-in for the inference service
type InferenceService struct {
	*httptest.Server

	mu          sync.Mutex
	state       string
	steps       []map[string]string
	chatDelay   time.Duration
	authHeaders []string
	down        atomic.Bool

	ChatCalls   atomic.Int32
	HealthCalls atomic.Int32
}

// NewInferenceService starts a fake service rooted at /api. It is closed when the
// test ends.
func NewInferenceService(t *testing.T, state models.ModelState) *InferenceService {
	t.Helper()
	svc := &InferenceService{state: string(state), steps: DefaultReasoningSteps}
	svc.Server = httptest.NewServer(http.HandlerFunc(svc.serve))
	t.Cleanup(svc.Close)
	return svc
}

// BaseURL returns the service root the console should be configured with
func (s *InferenceService) BaseURL() string {
	return s.URL + "/api"
}

// SetDown makes every request fail at the connection level
func (s *InferenceService) SetDown(down bool) {
	s.down.Store(down)
}

// SetState changes the reported model state
func (s *InferenceService) SetState(state models.ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = string(state)
}

// SetChatDelay delays every reasoning reply
func (s *InferenceService) SetChatDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatDelay = d
}

// AuthHeaders returns the Authorization header of every request received so far
func (s *InferenceService) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *InferenceService) serve(w http.ResponseWriter, r *http.Request) {
	if s.down.Load() {
		// drop the connection so the client sees a transport error
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	s.mu.Lock()
	s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
	state, steps, delay := s.state, s.steps, s.chatDelay
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/health":
		s.HealthCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "model_loaded": state == "trained"})
	case "/api/model/status":
		json.NewEncoder(w).Encode(map[string]any{
			"status":          state,
			"progress":        100,
			"message":         "Estado del modelo",
			"patterns_stored": 345,
			"model_stats":     map[string]any{"vocab_size": 1200, "is_trained": state == "trained"},
		})
	case "/api/chatbot-reasoning":
		s.ChatCalls.Add(1)
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"chatbot_messages": steps})
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not Found"}`))
	}
}
