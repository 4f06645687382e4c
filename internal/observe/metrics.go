// Package observe provides the OpenTelemetry metric instruments for the
// xivmarket server and the Prometheus exporter bridge that makes them
// scrapeable via a standard /metrics endpoint.
package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all xivmarket metrics.
const meterName = "github.com/tivalu/xivmarket"

// Metrics holds all metric instruments for the server. A nil *Metrics is
// valid and records nothing, so call sites never need to guard.
type Metrics struct {
	// UpstreamDuration tracks upstream HTTP request latency.
	// Attributes: service, status.
	UpstreamDuration metric.Float64Histogram

	// UpstreamRequests counts upstream HTTP requests.
	// Attributes: service, status.
	UpstreamRequests metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Attributes: tool, status.
	ToolCalls metric.Int64Counter

	// ToolDuration tracks MCP tool handling latency. Attribute: tool.
	ToolDuration metric.Float64Histogram

	// MateriaRefreshes counts materia index refresh attempts.
	// Attribute: status.
	MateriaRefreshes metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries in seconds, sized for
// remote HTTP calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] using the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.UpstreamDuration, err = m.Float64Histogram("xivmarket.upstream.duration",
		metric.WithDescription("Latency of upstream API requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UpstreamRequests, err = m.Int64Counter("xivmarket.upstream.requests",
		metric.WithDescription("Number of upstream API requests."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("xivmarket.tool.calls",
		metric.WithDescription("Number of MCP tool invocations."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram("xivmarket.tool.duration",
		metric.WithDescription("Latency of MCP tool handling."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.MateriaRefreshes, err = m.Int64Counter("xivmarket.materia.refreshes",
		metric.WithDescription("Number of materia index refresh attempts."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordUpstream records one upstream request outcome. status 0 means the
// request failed before a response arrived.
func (m *Metrics) RecordUpstream(ctx context.Context, service string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.UpstreamRequests.Add(ctx, 1, attrs)
	m.UpstreamDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordToolCall records one MCP tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, isError bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if isError {
		status = "error"
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
	m.ToolDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("tool", tool),
	))
}

// RecordMateriaRefresh records one materia index refresh attempt.
func (m *Metrics) RecordMateriaRefresh(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.MateriaRefreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
