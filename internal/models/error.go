package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeModelNotTrained    = "MODEL_NOT_TRAINED"
	ErrCodeServiceUnreachable = "SERVICE_UNREACHABLE"
	ErrCodePlaybackInProgress = "PLAYBACK_IN_PROGRESS"
	ErrCodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamTransport  = "UPSTREAM_TRANSPORT"
	ErrCodeUpstreamRejected   = "UPSTREAM_REJECTED"
)
