package observability

import (
	"context"
	"time"

	"metaproxy/internal/token"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// InstrumentedExchanger wraps a token.Exchanger and counts credential
// exchanges by outcome.
type InstrumentedExchanger struct {
	inner     token.Exchanger
	tracer    trace.Tracer
	duration  metric.Float64Histogram
	exchanges metric.Int64Counter
}

func NewInstrumentedExchanger(inner token.Exchanger, opts ...InstrumentOption) (*InstrumentedExchanger, error) {
	cfg := newInstrumentConfig(opts)
	meter := cfg.meter("token")

	duration, err := meter.Float64Histogram(
		"token.exchange.duration",
		metric.WithDescription("Duration of credential exchanges in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	exchanges, err := meter.Int64Counter(
		"token.exchanges",
		metric.WithDescription("Number of credential exchanges by result"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedExchanger{
		inner:     inner,
		tracer:    cfg.tracer("token"),
		duration:  duration,
		exchanges: exchanges,
	}, nil
}

func (e *InstrumentedExchanger) Exchange(ctx context.Context) (*oauth2.Token, error) {
	ctx, span := e.tracer.Start(ctx, "token.Exchange", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	tok, err := e.inner.Exchange(ctx)
	e.duration.Record(ctx, time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	e.exchanges.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return tok, err
}
