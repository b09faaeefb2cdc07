package gateway

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/bizmatters/reasoning-console/internal/auth"
	"github.com/bizmatters/reasoning-console/internal/session"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10

	// events a slow client may fall behind before the oldest are dropped
	streamBuffer = 256
)

// SnapshotFrame is the first frame of every session stream
type SnapshotFrame struct {
	Type    string       `json:"type"`
	Session session.View `json:"session"`
}

// SessionStream pushes session events to websocket clients
type SessionStream struct {
	session  *session.Controller
	upgrader websocket.Upgrader
	tracer   trace.Tracer
}

// NewSessionStream creates a stream over controller. An empty allowedOrigins list
// accepts same-origin requests only; "*" accepts any origin.
func NewSessionStream(controller *session.Controller, allowedOrigins []string) *SessionStream {
	return &SessionStream{
		session: controller,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		tracer: otel.Tracer("session-stream"),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// Stream handles WebSocket /api/ws/session
// @Summary Stream session events
// @Description Sends a snapshot frame followed by every session event as JSON
// @Tags session
// @Param token query string false "Bearer token for clients that cannot set headers"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {string} string "origin not allowed"
// @Security BearerAuth
// @Router /api/ws/session [get]
func (s *SessionStream) Stream(c *gin.Context) {
	_, span := s.tracer.Start(c.Request.Context(), "session_stream.stream")
	defer span.End()

	// subscribe before the snapshot so no event between the two is lost
	events, unsubscribe := s.session.Subscribe(streamBuffer)
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		logger.Warnf("Failed to upgrade session stream: %v", err)
		return
	}
	defer conn.Close()

	fields := logrus.Fields{"session_id": s.session.ID(), "remote": c.Request.RemoteAddr}
	if subject, ok := c.Get(auth.SubjectKey); ok {
		fields["subject"] = subject
		span.SetAttributes(attribute.String("subject", subject.(string)))
	}
	log := logger.WithFields(fields)
	log.Info("Session stream opened")

	// the reader only detects close and keeps the pong deadline fresh
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, SnapshotFrame{Type: "snapshot", Session: s.session.View()}); err != nil {
		span.RecordError(err)
		log.Debugf("Failed to send snapshot: %v", err)
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	sent := 0
	for {
		select {
		case <-closed:
			log.WithField("events_sent", sent).Info("Session stream closed by client")
			return
		case event, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := writeJSON(conn, event); err != nil {
				span.RecordError(err)
				log.Debugf("Failed to send %s event: %v", event.Type, err)
				return
			}
			sent++
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
