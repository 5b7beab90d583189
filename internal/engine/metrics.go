package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for engine metrics.
const meterName = "github.com/Veraticus/phonocorrect/internal/engine"

// Metrics holds the engine's OpenTelemetry instruments.
type Metrics struct {
	// Proposed counts suggestions returned by Check, by confidence band.
	Proposed metric.Int64Counter

	// Accepted counts suggestions applied to text, by rule category.
	Accepted metric.Int64Counter

	// Rejected counts suggestions the user dismissed, by rule category.
	Rejected metric.Int64Counter

	// Stale counts applies refused because the offsets no longer fit the text.
	Stale metric.Int64Counter

	// MatchDuration tracks how long one Check takes.
	MatchDuration metric.Float64Histogram
}

var matchBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// NewMetrics creates the engine instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Proposed, err = m.Int64Counter("phonocorrect.suggestions.proposed",
		metric.WithDescription("Suggestions returned to the caller."),
	); err != nil {
		return nil, err
	}
	if met.Accepted, err = m.Int64Counter("phonocorrect.suggestions.accepted",
		metric.WithDescription("Suggestions applied to text."),
	); err != nil {
		return nil, err
	}
	if met.Rejected, err = m.Int64Counter("phonocorrect.suggestions.rejected",
		metric.WithDescription("Suggestions dismissed by the user."),
	); err != nil {
		return nil, err
	}
	if met.Stale, err = m.Int64Counter("phonocorrect.suggestions.stale",
		metric.WithDescription("Applies refused because offsets no longer matched the text."),
	); err != nil {
		return nil, err
	}
	if met.MatchDuration, err = m.Float64Histogram("phonocorrect.match.duration",
		metric.WithDescription("Latency of matching one text against the active rules."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(matchBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns metrics on the global meter provider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("engine: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) recordMatch(ctx context.Context, elapsed time.Duration, bands map[string]int) {
	m.MatchDuration.Record(ctx, elapsed.Seconds())
	for band, n := range bands {
		m.Proposed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("band", band)))
	}
}

func (m *Metrics) recordAccepted(ctx context.Context, category string) {
	m.Accepted.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

func (m *Metrics) recordRejected(ctx context.Context, category string) {
	m.Rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

func (m *Metrics) recordStale(ctx context.Context) {
	m.Stale.Add(ctx, 1)
}
