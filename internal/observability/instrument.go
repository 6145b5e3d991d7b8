package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "metaproxy"

// InstrumentOption selects the providers an instrumented wrapper records to.
// Without options the global providers installed by Setup are used.
type InstrumentOption func(*instrumentConfig)

type instrumentConfig struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider records metrics to mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) InstrumentOption {
	return func(c *instrumentConfig) {
		c.meterProvider = mp
	}
}

// WithTracerProvider records spans to tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) InstrumentOption {
	return func(c *instrumentConfig) {
		c.tracerProvider = tp
	}
}

func newInstrumentConfig(opts []InstrumentOption) instrumentConfig {
	c := instrumentConfig{
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c instrumentConfig) meter(scope string) metric.Meter {
	return c.meterProvider.Meter(instrumentationName + "/" + scope)
}

func (c instrumentConfig) tracer(scope string) trace.Tracer {
	return c.tracerProvider.Tracer(instrumentationName + "/" + scope)
}
