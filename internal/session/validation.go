package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bizmatters/reasoning-console/internal/models"
	"github.com/bizmatters/reasoning-console/internal/playback"
)

var (
	ErrEmptyPrompt        = errors.New("prompt is empty")
	ErrInvalidParameter   = errors.New("invalid generation parameter")
	ErrModelNotTrained    = errors.New("model is not trained")
	ErrServiceUnreachable = errors.New("inference service is unreachable")
	ErrPlaybackInProgress = playback.ErrPlaybackInProgress
)

// ValidationError is a client-side rejection raised before any network call
type ValidationError struct {
	Reason  error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Generation parameter bounds and defaults
const (
	MinMaxLength          = 10
	MaxMaxLength          = 100
	DefaultMaxLength      = 50
	MinTemperature        = 0.1
	MaxTemperature        = 2.0
	DefaultTemperature    = 0.7
	MinReasoningDepth     = 1
	MaxReasoningDepth     = 5
	DefaultReasoningDepth = 3
	DefaultResponseStyle  = "detailed"
)

// ResponseStyles lists the accepted values of PromptRequest.ResponseStyle
var ResponseStyles = []string{"concise", "detailed", "technical", "educational", "creative"}

// PromptRequest is one user submission. Zero-valued parameters take their defaults.
type PromptRequest struct {
	Prompt         string  `json:"prompt"`
	MaxLength      int     `json:"max_length"`
	Temperature    float64 `json:"temperature"`
	ReasoningDepth int     `json:"reasoning_depth"`
	ResponseStyle  string  `json:"response_style"`
}

// reasoningRequest trims the prompt, fills defaults and checks every parameter range
func (r PromptRequest) reasoningRequest() (models.ReasoningRequest, error) {
	req := models.ReasoningRequest{
		Prompt:         strings.TrimSpace(r.Prompt),
		MaxLength:      r.MaxLength,
		Temperature:    r.Temperature,
		ReasoningDepth: r.ReasoningDepth,
		ResponseStyle:  strings.ToLower(strings.TrimSpace(r.ResponseStyle)),
	}

	if req.Prompt == "" {
		return req, &ValidationError{Reason: ErrEmptyPrompt, Message: "Enter a prompt before sending."}
	}

	if req.MaxLength == 0 {
		req.MaxLength = DefaultMaxLength
	}
	if req.Temperature == 0 {
		req.Temperature = DefaultTemperature
	}
	if req.ReasoningDepth == 0 {
		req.ReasoningDepth = DefaultReasoningDepth
	}
	if req.ResponseStyle == "" {
		req.ResponseStyle = DefaultResponseStyle
	}

	var problems []string
	if req.MaxLength < MinMaxLength || req.MaxLength > MaxMaxLength {
		problems = append(problems, fmt.Sprintf("max_length must be between %d and %d", MinMaxLength, MaxMaxLength))
	}
	if req.Temperature < MinTemperature || req.Temperature > MaxTemperature {
		problems = append(problems, fmt.Sprintf("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature))
	}
	if req.ReasoningDepth < MinReasoningDepth || req.ReasoningDepth > MaxReasoningDepth {
		problems = append(problems, fmt.Sprintf("reasoning_depth must be between %d and %d", MinReasoningDepth, MaxReasoningDepth))
	}
	if !slices.Contains(ResponseStyles, req.ResponseStyle) {
		problems = append(problems, fmt.Sprintf("response_style must be one of %s", strings.Join(ResponseStyles, ", ")))
	}

	if len(problems) > 0 {
		return req, &ValidationError{
			Reason:  ErrInvalidParameter,
			Message: "Invalid parameters: " + strings.Join(problems, "; "),
		}
	}

	return req, nil
}
