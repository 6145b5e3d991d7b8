package observability

import (
	"context"

	"metaproxy/internal/gate"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GateRecorder counts gate decisions by mode, action and reason. It implements
// gate.Recorder.
type GateRecorder struct {
	decisions metric.Int64Counter
	meter     metric.Meter
}

func NewGateRecorder(opts ...InstrumentOption) (*GateRecorder, error) {
	meter := newInstrumentConfig(opts).meter("gate")

	decisions, err := meter.Int64Counter(
		"gate.decisions",
		metric.WithDescription("Number of version gate decisions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &GateRecorder{decisions: decisions, meter: meter}, nil
}

func (r *GateRecorder) RecordDecision(ctx context.Context, mode string, d gate.Decision) {
	r.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("action", d.Action.String()),
		attribute.String("reason", d.Reason),
	))
}

// ObserveTrackedClients registers a gauge reporting how many client
// identifiers the rate limiter currently tracks.
func (r *GateRecorder) ObserveTrackedClients(count func() int) error {
	_, err := r.meter.Int64ObservableGauge(
		"ratelimit.tracked_clients",
		metric.WithDescription("Number of client identifiers held by the rate limiter"),
		metric.WithUnit("{client}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	return err
}
