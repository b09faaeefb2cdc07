package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bizmatters/reasoning-console/internal/config"
	"github.com/bizmatters/reasoning-console/internal/metrics"
	"github.com/bizmatters/reasoning-console/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeKind classifies the result of a single remote call
type OutcomeKind string

const (
	OutcomeOK             OutcomeKind = "ok"
	OutcomeTimeout        OutcomeKind = "timeout"
	OutcomeTransportError OutcomeKind = "transport_error"
	OutcomeServiceError   OutcomeKind = "service_error"
)

var (
	ErrTimeout   = errors.New("request timed out")
	ErrTransport = errors.New("transport error")
	ErrService   = errors.New("service error")
)

// RequestError is the error form of a non-OK Outcome
type RequestError struct {
	Kind       OutcomeKind
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case OutcomeTimeout:
		return fmt.Sprintf("%s: %s", ErrTimeout, e.Detail)
	case OutcomeServiceError:
		return fmt.Sprintf("service returned status %d: %s", e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", ErrTransport, e.Detail)
	}
}

// Is matches the package sentinels so callers can use errors.Is
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == OutcomeTimeout
	case ErrTransport:
		return e.Kind == OutcomeTransportError
	case ErrService:
		return e.Kind == OutcomeServiceError
	}
	return false
}

// Outcome is the result of one gateway call. Value is only meaningful when Kind is OutcomeOK.
type Outcome[T any] struct {
	Kind       OutcomeKind
	Value      T
	StatusCode int
	Detail     string
}

// Ok reports whether the call succeeded
func (o Outcome[T]) Ok() bool {
	return o.Kind == OutcomeOK
}

// Err returns nil for OK outcomes and a *RequestError otherwise
func (o Outcome[T]) Err() error {
	if o.Ok() {
		return nil
	}
	return &RequestError{Kind: o.Kind, StatusCode: o.StatusCode, Detail: o.Detail}
}

func failed[T any](kind OutcomeKind, status int, detail string) Outcome[T] {
	return Outcome[T]{Kind: kind, StatusCode: status, Detail: detail}
}

// TokenSource supplies bearer tokens for outbound calls
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Call describes one request against the inference service
type Call struct {
	// Operation names the call in spans and metrics; defaults to Endpoint
	Operation string
	Method    string
	// Endpoint is the path relative to the service base URL
	Endpoint string
	// JSON is marshalled as the request body when set
	JSON        any
	Body        []byte
	ContentType string
	// Timeout overrides the gateway default when positive
	Timeout    time.Duration
	UseBreaker bool
}

func (c Call) operation() string {
	if c.Operation != "" {
		return c.Operation
	}
	return c.Endpoint
}

// RequestGateway issues HTTP calls against the inference service and classifies every
// result into an Outcome. It holds no connectivity state of its own.
type RequestGateway struct {
	baseURL        string
	defaultTimeout time.Duration
	httpClient     *http.Client
	tokens         TokenSource
	breaker        *gobreaker.CircuitBreaker
	tracer         trace.Tracer
	metrics        *metrics.SessionMetrics
}

// NewRequestGateway creates a gateway for the configured service. tokens and
// sessionMetrics may be nil.
func NewRequestGateway(cfg config.ServiceConfig, tokens TokenSource, sessionMetrics *metrics.SessionMetrics) *RequestGateway {
	gw := &RequestGateway{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		defaultTimeout: cfg.Timeout,
		// per-call deadlines come from the request context
		httpClient: &http.Client{},
		tokens:     tokens,
		tracer:     otel.Tracer("inference-gateway"),
		metrics:    sessionMetrics,
	}

	if cfg.Breaker.Enabled {
		settings := gobreaker.Settings{
			Name:        "inference-service",
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    cfg.Breaker.Interval,
			Timeout:     cfg.Breaker.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Breaker.ConsecutiveFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
			},
		}
		gw.breaker = gobreaker.NewCircuitBreaker(settings)
	}

	return gw
}

// BaseURL returns the service root every endpoint is resolved against
func (g *RequestGateway) BaseURL() string {
	return g.baseURL
}

// Do performs call and returns exactly one Outcome. It never retries.
func (g *RequestGateway) Do(ctx context.Context, call Call) Outcome[[]byte] {
	ctx, span := g.tracer.Start(ctx, "inference_service.request")
	defer span.End()

	span.SetAttributes(
		attribute.String("http.method", call.Method),
		attribute.String("operation", call.operation()),
	)

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = g.defaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var out Outcome[[]byte]

	if call.UseBreaker && g.breaker != nil {
		_, err := g.breaker.Execute(func() (interface{}, error) {
			out = g.send(callCtx, call, timeout)
			// service errors prove the service is alive and must not trip the breaker
			if out.Kind == OutcomeTimeout || out.Kind == OutcomeTransportError {
				return nil, out.Err()
			}
			return nil, nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			out = failed[[]byte](OutcomeTransportError, 0, "circuit breaker is open")
		}
	} else {
		out = g.send(callCtx, call, timeout)
	}

	elapsed := time.Since(start)
	g.metrics.RecordRequest(ctx, call.operation(), string(out.Kind), elapsed)

	span.SetAttributes(
		attribute.String("outcome", string(out.Kind)),
		attribute.Int("http.status_code", out.StatusCode),
	)
	if !out.Ok() {
		err := out.Err()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithFields(logrus.Fields{
			"operation": call.operation(),
			"outcome":   out.Kind,
			"status":    out.StatusCode,
			"elapsed":   elapsed,
		}).Debugf("inference call failed: %s", out.Detail)
	}

	return out
}

func (g *RequestGateway) send(ctx context.Context, call Call, timeout time.Duration) Outcome[[]byte] {
	body := call.Body
	contentType := call.ContentType
	if call.JSON != nil {
		jsonData, err := json.Marshal(call.JSON)
		if err != nil {
			return failed[[]byte](OutcomeTransportError, 0, fmt.Sprintf("failed to marshal request: %v", err))
		}
		body = jsonData
		contentType = "application/json"
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	url := g.baseURL + "/" + strings.TrimLeft(call.Endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, call.Method, url, reader)
	if err != nil {
		return failed[[]byte](OutcomeTransportError, 0, fmt.Sprintf("failed to create request: %v", err))
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	if g.tokens != nil {
		token, err := g.tokens.Token(ctx)
		if err != nil {
			return failed[[]byte](OutcomeTransportError, 0, fmt.Sprintf("failed to obtain service token: %v", err))
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	// Inject trace context
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return classifyTransport(err, timeout)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(err, timeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failed[[]byte](OutcomeServiceError, resp.StatusCode, serviceDetail(resp.StatusCode, bodyBytes))
	}

	return Outcome[[]byte]{Kind: OutcomeOK, Value: bodyBytes, StatusCode: resp.StatusCode}
}

func classifyTransport(err error, timeout time.Duration) Outcome[[]byte] {
	if errors.Is(err, context.DeadlineExceeded) {
		return failed[[]byte](OutcomeTimeout, 0, fmt.Sprintf("no response within %s", timeout))
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failed[[]byte](OutcomeTimeout, 0, fmt.Sprintf("no response within %s", timeout))
	}

	if errors.Is(err, context.Canceled) {
		return failed[[]byte](OutcomeTransportError, 0, "request cancelled")
	}

	return failed[[]byte](OutcomeTransportError, 0, err.Error())
}

// serviceDetail extracts the human-readable reason from an error body. The service
// reports {"detail": ...}; other servers in front of it may use {"error": ...}.
func serviceDetail(status int, body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Detail) > 0 {
			var text string
			if err := json.Unmarshal(payload.Detail, &text); err == nil {
				return text
			}
			// validation errors carry a structured detail
			return string(payload.Detail)
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

// Invoke performs call through gw and decodes a successful body into T. A 2xx reply
// whose body does not decode becomes a ServiceError.
func Invoke[T any](ctx context.Context, gw *RequestGateway, call Call) Outcome[T] {
	raw := gw.Do(ctx, call)
	if !raw.Ok() {
		return failed[T](raw.Kind, raw.StatusCode, raw.Detail)
	}

	var value T
	if len(bytes.TrimSpace(raw.Value)) > 0 {
		if err := json.Unmarshal(raw.Value, &value); err != nil {
			return failed[T](OutcomeServiceError, raw.StatusCode, fmt.Sprintf("failed to decode response: %v", err))
		}
	}

	return Outcome[T]{Kind: OutcomeOK, Value: value, StatusCode: raw.StatusCode}
}
