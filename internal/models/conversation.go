package models

import (
	"encoding/json"
	"time"
)

// StepKind identifies the role a conversation step plays in a reasoning reply
type StepKind string

const (
	StepUser             StepKind = "user"
	StepSystem           StepKind = "system"
	StepAnalysis         StepKind = "analysis"
	StepReasoning        StepKind = "reasoning"
	StepBaseResponse     StepKind = "base_response"
	StepReasonedResponse StepKind = "reasoned_response"
	StepFinalResponse    StepKind = "final_response"
	StepPatterns         StepKind = "patterns"
)

// Valid reports whether k is one of the known step kinds
func (k StepKind) Valid() bool {
	switch k {
	case StepUser, StepSystem, StepAnalysis, StepReasoning,
		StepBaseResponse, StepReasonedResponse, StepFinalResponse, StepPatterns:
		return true
	}
	return false
}

// ConversationStep is one immutable step of a reasoning reply as produced by the service
type ConversationStep struct {
	Kind       StepKind  `json:"type"`
	Content    string    `json:"content"`
	ProducedAt time.Time `json:"timestamp"`
}

// timestamp layouts the service is known to emit; Python's isoformat() omits the zone
var stepTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// UnmarshalJSON accepts the wire shape {type, content, timestamp}. A timestamp that
// cannot be parsed is left zero.
func (s *ConversationStep) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type      StepKind `json:"type"`
		Content   string   `json:"content"`
		Timestamp string   `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	s.Kind = wire.Type
	s.Content = wire.Content
	s.ProducedAt = time.Time{}
	for _, layout := range stepTimestampLayouts {
		if ts, err := time.Parse(layout, wire.Timestamp); err == nil {
			s.ProducedAt = ts
			break
		}
	}
	return nil
}

// DisplayMessage is the client-visible projection of a ConversationStep.
// Pending messages carry no content; they resolve exactly once.
type DisplayMessage struct {
	ID         string    `json:"id"`
	Index      int       `json:"index"`
	Kind       StepKind  `json:"type"`
	Content    string    `json:"content"`
	Pending    bool      `json:"pending"`
	ProducedAt time.Time `json:"timestamp"`
}

// ReasoningRequest represents the body of POST /chatbot-reasoning
type ReasoningRequest struct {
	Prompt         string  `json:"prompt"`
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
	ReasoningDepth int     `json:"reasoning_depth"`
	ResponseStyle  string  `json:"response_style"`
}

// ReasoningResponse represents the reply of POST /chatbot-reasoning
type ReasoningResponse struct {
	Messages []ConversationStep `json:"chatbot_messages"`
}
