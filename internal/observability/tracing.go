package observability

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span exporters accepted in TracingConfig.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	defaultOTLPEndpoint  = "localhost:4317"
	tracingCloseTimeout  = 5 * time.Second
	tracingNamespaceAttr = "commnet"
)

// TracingConfig is the tracing section of the calculator configuration.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`

	// Output receives stdout-exporter spans. Nil means os.Stderr.
	Output io.Writer `mapstructure:"-"`
}

// Tracing is the tracer provider installed by StartTracing. A nil or
// disabled Tracing is safe to Close.
type Tracing struct {
	provider *sdktrace.TracerProvider
	log      logging.Logger
}

// StartTracing installs the global tracer provider and propagators. When
// tracing is disabled a noop provider is installed and only W3C trace
// context is propagated, so incoming trace IDs still reach the logs.
func StartTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (*Tracing, error) {
	if log == nil {
		log = logging.Noop()
	}
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return &Tracing{log: log}, nil
	}
	if r := cfg.SampleRatio; !(r >= 0 && r <= 1) {
		return nil, fmt.Errorf("tracing: sample ratio %v outside [0,1]", r)
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.namespace", tracingNamespaceAttr),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "tracing enabled",
		logging.String("exporter", cmp.Or(cfg.Exporter, ExporterStdout)),
		logging.String("service_name", cfg.ServiceName),
		logging.Any("sample_ratio", cfg.SampleRatio),
	)
	return &Tracing{provider: provider, log: log}, nil
}

// Enabled reports whether spans are exported.
func (t *Tracing) Enabled() bool {
	return t != nil && t.provider != nil
}

// Close flushes buffered spans. It survives ctx cancellation so spans
// recorded during shutdown still go out, bounded by a short timeout.
func (t *Tracing) Close(ctx context.Context) {
	if !t.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tracingCloseTimeout)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		t.log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", ExporterStdout:
		var out io.Writer = os.Stderr
		if cfg.Output != nil {
			out = cfg.Output
		}
		return stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithoutTimestamps())
	case ExporterOTLP:
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cmp.Or(cfg.Endpoint, defaultOTLPEndpoint)),
			otlptracegrpc.WithInsecure(),
		))
	default:
		return nil, fmt.Errorf("unsupported exporter %q", cfg.Exporter)
	}
}
