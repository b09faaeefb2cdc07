package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, tc *testConsole, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	server := httptest.NewServer(tc.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/session"
	return websocket.DefaultDialer.Dial(wsURL, header)
}

func TestSessionStream(t *testing.T) {
	tc := newTestConsole(t, true, nil)
	tc.controller.Reconnect(context.Background())

	conn, _, err := dialSession(t, tc, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snapshot SnapshotFrame
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "snapshot", snapshot.Type)
	assert.Equal(t, tc.controller.ID(), snapshot.Session.SessionID)
	assert.True(t, snapshot.Session.CanSubmit)

	require.NoError(t, tc.controller.Submit(context.Background(), session.PromptRequest{Prompt: "hola"}))

	var types []models.EventType
	for {
		var event models.SessionEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, tc.controller.ID(), event.SessionID)
		types = append(types, event.Type)
		if event.Type == models.EventPlaybackFinished {
			break
		}
	}

	assert.Equal(t, models.EventPlaybackStarted, types[0])
	assert.Contains(t, types, models.EventMessageAppended)
	assert.Contains(t, types, models.EventMessageResolved)
	assert.Contains(t, types, models.EventProgress)
}

func TestSessionStream_Origin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "no origin", allowed: true},
		{name: "allowed origin", origin: "http://localhost:3000", allowed: true},
		{name: "foreign origin", origin: "http://evil.example", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestConsole(t, true, nil)
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := dialSession(t, tc, header)
			if tt.allowed {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker(nil)

	req := httptest.NewRequest(http.MethodGet, "http://console.local/api/ws/session", nil)
	req.Header.Set("Origin", "http://console.local")
	assert.True(t, check(req), "same origin is always allowed")

	req.Header.Set("Origin", "http://other.local")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
