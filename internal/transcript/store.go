package transcript

import (
	"context"
	"errors"
	"sync"

	"github.com/bizmatters/reasoning-console/internal/models"
)

var (
	// ErrSessionNotFound is returned when a session has no recorded messages
	ErrSessionNotFound = errors.New("session not found")
	// ErrPendingMessage is returned when a placeholder is appended before it resolves
	ErrPendingMessage = errors.New("pending messages cannot be recorded")
)

// Store records resolved display messages per session
type Store interface {
	Append(ctx context.Context, sessionID string, msg models.DisplayMessage) error
	List(ctx context.Context, sessionID string) ([]models.DisplayMessage, error)
	Close()
}

// MemoryStore keeps transcripts in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.DisplayMessage
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]models.DisplayMessage)}
}

// Append records msg; a message ID already recorded for the session is ignored
func (s *MemoryStore) Append(ctx context.Context, sessionID string, msg models.DisplayMessage) error {
	if msg.Pending {
		return ErrPendingMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.sessions[sessionID] {
		if existing.ID == msg.ID {
			return nil
		}
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], msg)
	return nil
}

// List returns the session's messages in the order they were recorded
func (s *MemoryStore) List(ctx context.Context, sessionID string) ([]models.DisplayMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	out := make([]models.DisplayMessage, len(messages))
	copy(out, messages)
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() {}
