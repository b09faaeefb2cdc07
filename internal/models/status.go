package models

import (
	"encoding/json"
	"time"
)

// ModelState represents the training lifecycle of the remote model
type ModelState string

const (
	ModelIdle          ModelState = "idle"
	ModelTraining      ModelState = "training"
	ModelTrained       ModelState = "trained"
	ModelError         ModelState = "error"
	ModelUninitialized ModelState = "uninitialized"
)

// StatusSnapshot is the most recently fetched model status. It is replaced wholesale,
// never merged.
type StatusSnapshot struct {
	State    ModelState         `json:"state"`
	Progress int                `json:"progress"`
	Message  string             `json:"message"`
	Metrics  map[string]float64 `json:"metrics"`
}

// Trained reports whether prompts may be submitted against this snapshot
func (s StatusSnapshot) Trained() bool {
	return s.State == ModelTrained
}

// statusWire mirrors GET /model/status
type statusWire struct {
	Status         string         `json:"status"`
	Progress       float64        `json:"progress"`
	Message        string         `json:"message"`
	ModelStats     map[string]any `json:"model_stats"`
	PatternsStored *float64       `json:"patterns_stored"`
	MemoryKB       *float64       `json:"memory_kb"`

	// normalized form, as re-encoded by this client
	State   string             `json:"state"`
	Metrics map[string]float64 `json:"metrics"`
}

// UnmarshalJSON decodes the service's status payload into a normalized snapshot
func (s *StatusSnapshot) UnmarshalJSON(data []byte) error {
	var wire statusWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	if wire.Status == "" {
		wire.Status = wire.State
	}

	s.State = parseModelState(wire.Status)
	s.Progress = clampProgress(wire.Progress)
	s.Message = wire.Message
	s.Metrics = make(map[string]float64, len(wire.Metrics)+len(wire.ModelStats))

	for name, value := range wire.Metrics {
		s.Metrics[name] = value
	}

	for name, value := range wire.ModelStats {
		switch v := value.(type) {
		case float64:
			s.Metrics[name] = v
		case bool:
			if v {
				s.Metrics[name] = 1
			} else {
				s.Metrics[name] = 0
			}
		}
	}
	if wire.PatternsStored != nil {
		s.Metrics["patterns_stored"] = *wire.PatternsStored
	}
	if wire.MemoryKB != nil {
		s.Metrics["memory_kb"] = *wire.MemoryKB
	}

	return nil
}

func parseModelState(raw string) ModelState {
	switch raw {
	case "idle":
		return ModelIdle
	case "training":
		return ModelTraining
	case "trained":
		return ModelTrained
	case "error":
		return ModelError
	case "not_initialized", "uninitialized":
		return ModelUninitialized
	default:
		return ModelError
	}
}

func clampProgress(p float64) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return int(p)
	}
}

// HealthReport represents the reply of GET /health
type HealthReport struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version,omitempty"`
}

// ConnectivityState is the reachability of the remote service as last probed
type ConnectivityState struct {
	Reachable           bool      `json:"reachable"`
	LastCheckedAt       time.Time `json:"last_checked_at"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}
