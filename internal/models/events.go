package models

import (
	"time"
)

// EventType identifies a session event delivered to renderers
type EventType string

const (
	EventConnectivity     EventType = "connectivity"
	EventStatus           EventType = "status"
	EventPlaybackStarted  EventType = "playback_started"
	EventMessageAppended  EventType = "message_appended"
	EventMessageResolved  EventType = "message_resolved"
	EventProgress         EventType = "progress"
	EventPlaybackFinished EventType = "playback_finished"
)

// Progress is the 1-based index of the last resolved step out of the batch length
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// SessionEvent represents one incremental UI update
type SessionEvent struct {
	Type         EventType          `json:"type"`
	SessionID    string             `json:"session_id,omitempty"`
	Message      *DisplayMessage    `json:"message,omitempty"`
	Progress     *Progress          `json:"progress,omitempty"`
	Connectivity *ConnectivityState `json:"connectivity,omitempty"`
	Status       *StatusSnapshot    `json:"status,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}
