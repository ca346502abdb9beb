// Package observe provides application-wide observability primitives for
// loomkeeper: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all loomkeeper metrics.
const meterName = "github.com/duskward/loomkeeper"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// QueueWaitDuration tracks how long an item sat Queued before a worker
	// picked it up. Use with attribute.String("queue", ...).
	QueueWaitDuration metric.Float64Histogram

	// QueueProcessDuration tracks worker processing time once an item left
	// Queued. Use with attribute.String("queue", ...).
	QueueProcessDuration metric.Float64Histogram

	// LLMDuration tracks LLM inference latency.
	LLMDuration metric.Float64Histogram

	// ToolExecutionDuration tracks MCP tool execution latency.
	ToolExecutionDuration metric.Float64Histogram

	// SceneResolutionDuration tracks how long scene resolution takes for a
	// single region entry.
	SceneResolutionDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// QueueItemsEnqueued counts items enqueued per queue.
	QueueItemsEnqueued metric.Int64Counter

	// QueueItemsCompleted counts terminal transitions per queue and outcome
	// (attribute.String("outcome", "completed"|"failed")).
	QueueItemsCompleted metric.Int64Counter

	// StagingApprovals counts staging approvals by source
	// (attribute.String("source", "rule_based"|"llm_based"|"dm_manual")).
	StagingApprovals metric.Int64Counter

	// TimeAdvances counts successful game-time advances by mode.
	TimeAdvances metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveConnections tracks the number of currently connected participants.
	ActiveConnections metric.Int64UpDownCounter

	// ActiveWorlds tracks the number of worlds with at least one connection.
	ActiveWorlds metric.Int64UpDownCounter

	// QueueDepth tracks the current pending depth of each queue
	// (attribute.String("queue", ...)).
	QueueDepth metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) suitable
// for both fast in-process hops (queue handoff) and slow network calls (LLM,
// image generation).
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.QueueWaitDuration, err = m.Float64Histogram("loomkeeper.queue.wait_duration",
		metric.WithDescription("Time an item spent Queued before a worker leased it."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.QueueProcessDuration, err = m.Float64Histogram("loomkeeper.queue.process_duration",
		metric.WithDescription("Worker processing time once an item left Queued."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("loomkeeper.llm.duration",
		metric.WithDescription("Latency of LLM inference."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ToolExecutionDuration, err = m.Float64Histogram("loomkeeper.tool_execution.duration",
		metric.WithDescription("Latency of MCP tool execution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SceneResolutionDuration, err = m.Float64Histogram("loomkeeper.scene.resolution_duration",
		metric.WithDescription("Latency of scene resolution for a single region entry."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("loomkeeper.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("loomkeeper.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.QueueItemsEnqueued, err = m.Int64Counter("loomkeeper.queue.enqueued",
		metric.WithDescription("Total items enqueued, by queue."),
	); err != nil {
		return nil, err
	}
	if met.QueueItemsCompleted, err = m.Int64Counter("loomkeeper.queue.completed",
		metric.WithDescription("Total terminal queue transitions, by queue and outcome."),
	); err != nil {
		return nil, err
	}
	if met.StagingApprovals, err = m.Int64Counter("loomkeeper.staging.approvals",
		metric.WithDescription("Total staging approvals, by source."),
	); err != nil {
		return nil, err
	}
	if met.TimeAdvances, err = m.Int64Counter("loomkeeper.time.advances",
		metric.WithDescription("Total successful game-time advances, by mode."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("loomkeeper.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveConnections, err = m.Int64UpDownCounter("loomkeeper.active_connections",
		metric.WithDescription("Number of currently connected participants."),
	); err != nil {
		return nil, err
	}
	if met.ActiveWorlds, err = m.Int64UpDownCounter("loomkeeper.active_worlds",
		metric.WithDescription("Number of worlds with at least one connection."),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64UpDownCounter("loomkeeper.queue.depth",
		metric.WithDescription("Current pending depth, by queue."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("loomkeeper.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordQueueEnqueued is a convenience method that increments the enqueue
// counter for the named queue.
func (m *Metrics) RecordQueueEnqueued(ctx context.Context, queue string) {
	m.QueueItemsEnqueued.Add(ctx, 1, metric.WithAttributes(attribute.String("queue", queue)))
}

// RecordQueueCompleted is a convenience method that increments the terminal
// transition counter for the named queue and outcome ("completed"|"failed").
func (m *Metrics) RecordQueueCompleted(ctx context.Context, queue, outcome string) {
	m.QueueItemsCompleted.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("queue", queue),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
