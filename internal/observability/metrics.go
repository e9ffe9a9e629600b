package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long requests/generations take
// - Traffic: Request/generation throughput
// - Errors: Rate of failures
// - Saturation: Resource utilization (in-flight generations, queue depth)
type Metrics struct {
	meter metric.Meter

	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Generation metrics (Latency, Traffic, Errors, Saturation)
	GenerationDuration    metric.Float64Histogram
	GenerationsTotal      metric.Int64Counter
	GenerationErrorsTotal metric.Int64Counter
	GenerationsActive     metric.Int64UpDownCounter

	// Backend call metrics (Traffic, Errors)
	SubmitAttemptsTotal metric.Int64Counter
	ProbeAttemptsTotal  metric.Int64Counter

	// Dispatcher metrics (Latency, Traffic, Errors, Saturation)
	DispatcherDuration   metric.Float64Histogram
	DispatcherDelivered  metric.Int64Counter
	DispatcherFailed     metric.Int64Counter
	DispatcherDropped    metric.Int64Counter
	DispatcherRequeued   metric.Int64Counter
	DispatcherQueueSize  metric.Int64Gauge
	DispatcherBufferSize int64 // config value for saturation calculation
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("dreamframe")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Generation metrics. Buckets stretch to the polling deadline since
	// a generation can legitimately run for hours.
	m.GenerationDuration, err = meter.Float64Histogram(
		"generation_duration_seconds",
		metric.WithDescription("End-to-end generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200, 14400),
	)
	if err != nil {
		return nil, nil, err
	}

	m.GenerationsTotal, err = meter.Int64Counter(
		"generations_total",
		metric.WithDescription("Total number of generations submitted"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.GenerationErrorsTotal, err = meter.Int64Counter(
		"generation_errors_total",
		metric.WithDescription("Total number of generations that did not succeed"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.GenerationsActive, err = meter.Int64UpDownCounter(
		"generations_active",
		metric.WithDescription("Number of generations currently being polled (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Backend call metrics
	m.SubmitAttemptsTotal, err = meter.Int64Counter(
		"submission_attempts_total",
		metric.WithDescription("Submission attempts per model-endpoint candidate"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ProbeAttemptsTotal, err = meter.Int64Counter(
		"probe_attempts_total",
		metric.WithDescription("Status probe attempts by lookup strategy and outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Dispatcher metrics
	m.DispatcherDuration, err = meter.Float64Histogram(
		"dispatcher_duration_seconds",
		metric.WithDescription("Callback delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherDelivered, err = meter.Int64Counter(
		"dispatcher_delivered_total",
		metric.WithDescription("Total events successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherFailed, err = meter.Int64Counter(
		"dispatcher_failed_total",
		metric.WithDescription("Total events failed after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherDropped, err = meter.Int64Counter(
		"dispatcher_dropped_total",
		metric.WithDescription("Total events dropped (buffer full or max requeues)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherRequeued, err = meter.Int64Counter(
		"dispatcher_requeued_total",
		metric.WithDescription("Total events requeued due to open circuit"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DispatcherQueueSize, err = meter.Int64Gauge(
		"dispatcher_queue_size",
		metric.WithDescription("Current number of events in dispatcher queue (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordGenerationStarted records a generation being accepted for polling.
func (m *Metrics) RecordGenerationStarted(ctx context.Context, model string) {
	attrs := metric.WithAttributes(modelAttr(model))
	m.GenerationsTotal.Add(ctx, 1, attrs)
	m.GenerationsActive.Add(ctx, 1, attrs)
}

// RecordGenerationCompleted records a generation reaching a terminal outcome.
func (m *Metrics) RecordGenerationCompleted(ctx context.Context, model, outcome string, durationSeconds float64) {
	attrs := metric.WithAttributes(modelAttr(model), outcomeAttr(outcome))
	m.GenerationDuration.Record(ctx, durationSeconds, attrs)
	m.GenerationsActive.Add(ctx, -1, metric.WithAttributes(modelAttr(model)))

	if outcome != "success" {
		m.GenerationErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordSubmitAttempt records one submission attempt against a candidate.
func (m *Metrics) RecordSubmitAttempt(ctx context.Context, candidate string, accepted bool) {
	m.SubmitAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		modelAttr(candidate),
		acceptedAttr(accepted),
	))
}

// RecordProbe records one status probe by lookup strategy and outcome.
func (m *Metrics) RecordProbe(ctx context.Context, strategy, outcome string) {
	m.ProbeAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		strategyAttr(strategy),
		outcomeAttr(outcome),
	))
}

// RecordDispatcherDelivered records a successful event delivery with its duration.
func (m *Metrics) RecordDispatcherDelivered(ctx context.Context, durationSeconds float64) {
	m.DispatcherDelivered.Add(ctx, 1)
	m.DispatcherDuration.Record(ctx, durationSeconds)
}

// RecordDispatcherFailed records a failed event delivery.
func (m *Metrics) RecordDispatcherFailed(ctx context.Context) {
	m.DispatcherFailed.Add(ctx, 1)
}

// RecordDispatcherDropped records a dropped event.
func (m *Metrics) RecordDispatcherDropped(ctx context.Context) {
	m.DispatcherDropped.Add(ctx, 1)
}

// RecordDispatcherRequeued records a requeued event.
func (m *Metrics) RecordDispatcherRequeued(ctx context.Context) {
	m.DispatcherRequeued.Add(ctx, 1)
}

// RecordDispatcherQueueSize records the current queue size.
func (m *Metrics) RecordDispatcherQueueSize(ctx context.Context, size int64) {
	m.DispatcherQueueSize.Record(ctx, size)
}
