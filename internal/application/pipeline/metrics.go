package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records pipeline throughput and failures.
type Metrics struct {
	scored   metric.Int64Counter
	failed   metric.Int64Counter
	fetched  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics registers the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	scored, err := meter.Int64Counter("vulntriage_records_scored",
		metric.WithDescription("Records scored successfully, by risk tier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create scored counter: %w", err)
	}
	failed, err := meter.Int64Counter("vulntriage_records_failed",
		metric.WithDescription("Records skipped during batch scoring, by stage"))
	if err != nil {
		return nil, fmt.Errorf("failed to create failed counter: %w", err)
	}
	fetched, err := meter.Int64Counter("vulntriage_records_fetched",
		metric.WithDescription("Records returned by the vulnerability feed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create fetched counter: %w", err)
	}
	duration, err := meter.Float64Histogram("vulntriage_batch_duration_seconds",
		metric.WithDescription("Wall time of a batch run"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &Metrics{scored: scored, failed: failed, fetched: fetched, duration: duration}, nil
}

func (m *Metrics) recordFetched(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.fetched.Add(ctx, int64(n))
}

func (m *Metrics) recordScored(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.scored.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *Metrics) recordFailed(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) recordDuration(ctx context.Context, start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}
