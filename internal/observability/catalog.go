package observability

import (
	"context"
	"errors"
	"strconv"
	"time"

	"metaproxy/internal/metadata"
	"metaproxy/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedCatalog wraps a metadata.Catalog with OpenTelemetry tracing and
// metrics instrumentation.
type InstrumentedCatalog struct {
	inner    metadata.Catalog
	tracer   trace.Tracer
	duration metric.Float64Histogram
	lookups  metric.Int64Counter
	errors   metric.Int64Counter
}

// NewInstrumentedCatalog creates a catalog wrapper that records a span, a
// latency histogram, a result counter and an error counter for every lookup.
func NewInstrumentedCatalog(inner metadata.Catalog, opts ...InstrumentOption) (*InstrumentedCatalog, error) {
	cfg := newInstrumentConfig(opts)
	meter := cfg.meter("catalog")

	duration, err := meter.Float64Histogram(
		"catalog.lookup.duration",
		metric.WithDescription("Duration of catalog lookups in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	lookups, err := meter.Int64Counter(
		"catalog.lookups",
		metric.WithDescription("Number of completed catalog lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"catalog.lookup.errors",
		metric.WithDescription("Number of failed catalog lookups"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedCatalog{
		inner:    inner,
		tracer:   cfg.tracer("catalog"),
		duration: duration,
		lookups:  lookups,
		errors:   errCounter,
	}, nil
}

func (c *InstrumentedCatalog) Name() string {
	return c.inner.Name()
}

// Lookup delegates to the wrapped catalog. The query text is not recorded.
func (c *InstrumentedCatalog) Lookup(ctx context.Context, query string) (*models.MetadataResponse, error) {
	catalog := c.inner.Name()
	ctx, span := c.tracer.Start(ctx, "catalog.Lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog", catalog)),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.inner.Lookup(ctx, query)
	attrs := []attribute.KeyValue{attribute.String("catalog", catalog)}
	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))

	if err != nil {
		errAttrs := append(attrs, attribute.String("status", errorStatus(err)))
		c.errors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	result := "miss"
	if resp != nil && resp.Found {
		result = "hit"
	}
	c.lookups.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("result", result))...))
	span.SetAttributes(attribute.String("catalog.result", result))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// errorStatus classifies err for the status label: the upstream HTTP status
// when there was one, otherwise "transport".
func errorStatus(err error) string {
	var lookupErr *metadata.LookupError
	if !errors.As(err, &lookupErr) {
		return "other"
	}
	if lookupErr.StatusCode != 0 {
		return strconv.Itoa(lookupErr.StatusCode)
	}
	return "transport"
}
