package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("reasoning-session")

// SessionMetrics provides metrics collection for remote calls, probes and playbacks
type SessionMetrics struct {
	requestsCounter          metric.Int64Counter
	requestDurationHistogram metric.Float64Histogram
	probesCounter            metric.Int64Counter
	reachableGauge           metric.Int64UpDownCounter
	playbacksCounter         metric.Int64Counter
	playbacksActiveGauge     metric.Int64UpDownCounter
	stepsResolvedCounter     metric.Int64Counter
}

// NewSessionMetrics creates a new session metrics collector
func NewSessionMetrics() (*SessionMetrics, error) {
	requestsCounter, err := meter.Int64Counter(
		"reasoning_console.requests",
		metric.WithDescription("Remote calls by endpoint and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDurationHistogram, err := meter.Float64Histogram(
		"reasoning_console.request.duration",
		metric.WithDescription("Duration of remote calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	probesCounter, err := meter.Int64Counter(
		"reasoning_console.probes",
		metric.WithDescription("Liveness probes by result"),
		metric.WithUnit("{probe}"),
	)
	if err != nil {
		return nil, err
	}

	reachableGauge, err := meter.Int64UpDownCounter(
		"reasoning_console.service.reachable",
		metric.WithDescription("1 while the remote service is reachable"),
	)
	if err != nil {
		return nil, err
	}

	playbacksCounter, err := meter.Int64Counter(
		"reasoning_console.playbacks",
		metric.WithDescription("Playbacks by result"),
		metric.WithUnit("{playback}"),
	)
	if err != nil {
		return nil, err
	}

	playbacksActiveGauge, err := meter.Int64UpDownCounter(
		"reasoning_console.playbacks.active",
		metric.WithDescription("Number of playbacks currently running"),
		metric.WithUnit("{playback}"),
	)
	if err != nil {
		return nil, err
	}

	stepsResolvedCounter, err := meter.Int64Counter(
		"reasoning_console.steps.resolved",
		metric.WithDescription("Conversation steps resolved by kind"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, err
	}

	return &SessionMetrics{
		requestsCounter:          requestsCounter,
		requestDurationHistogram: requestDurationHistogram,
		probesCounter:            probesCounter,
		reachableGauge:           reachableGauge,
		playbacksCounter:         playbacksCounter,
		playbacksActiveGauge:     playbacksActiveGauge,
		stepsResolvedCounter:     stepsResolvedCounter,
	}, nil
}

// RecordRequest records one remote call and its classified outcome.
// A nil receiver records nothing.
func (sm *SessionMetrics) RecordRequest(ctx context.Context, endpoint, outcome string, duration time.Duration) {
	if sm == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	sm.requestsCounter.Add(ctx, 1, attrs)
	sm.requestDurationHistogram.Record(ctx, duration.Seconds(), attrs)
}

// RecordProbe records a probe result and, on a transition, moves the reachable gauge
func (sm *SessionMetrics) RecordProbe(ctx context.Context, outcome string, reachable, changed bool) {
	if sm == nil {
		return
	}
	sm.probesCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Bool("reachable", reachable),
		),
	)
	if !changed {
		return
	}
	if reachable {
		sm.reachableGauge.Add(ctx, 1)
	} else {
		sm.reachableGauge.Add(ctx, -1)
	}
}

// RecordPlaybackStarted records a playback entering the running state
func (sm *SessionMetrics) RecordPlaybackStarted(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.playbacksActiveGauge.Add(ctx, 1)
}

// RecordPlaybackFinished records the end of a playback
func (sm *SessionMetrics) RecordPlaybackFinished(ctx context.Context, result string) {
	if sm == nil {
		return
	}
	sm.playbacksCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
	sm.playbacksActiveGauge.Add(ctx, -1)
}

// RecordStepResolved records a resolved conversation step
func (sm *SessionMetrics) RecordStepResolved(ctx context.Context, kind string) {
	if sm == nil {
		return
	}
	sm.stepsResolvedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
