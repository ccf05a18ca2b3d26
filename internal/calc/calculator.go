// Package calc is the application service shared by the CLI, the gRPC
// service, and the HTTP API. It owns the current set of external device
// definitions and turns raw "[COUNT:]NAME" specifiers into range reports.
package calc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/config"
	"github.com/signalsfoundry/commnet-calculator/internal/devicefile"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
	"github.com/signalsfoundry/commnet-calculator/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/commnet-calculator/internal/calc"

// MetricsRecorder receives calculation metrics. *observability.CalcCollector
// satisfies it.
type MetricsRecorder interface {
	ObserveCalculation(outcome string, elapsed time.Duration, maxDistance float64)
	SetCatalogSize(n int)
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithLogger sets the base logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Calculator) {
		c.metrics = m
	}
}

// WithBatches seeds the external device batches loaded on top of the
// built-in devices.
func WithBatches(batches []devicefile.Batch) Option {
	return func(c *Calculator) {
		c.initial = batches
	}
}

// WithBuiltins replaces the built-in device set.
func WithBuiltins(defs []model.DeviceDefinition) Option {
	return func(c *Calculator) {
		c.builtins = defs
	}
}

// Calculator computes range reports. It is safe for concurrent use:
// every calculation builds its own catalog from an immutable snapshot of
// the external batches.
type Calculator struct {
	bands      *core.BandTable
	runnerOpts []core.RunnerOption
	builtins   []model.DeviceDefinition
	initial    []devicefile.Batch

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	batches atomic.Pointer[[]devicefile.Batch]
}

// New builds a Calculator from cfg. The initial batches are validated by
// building a catalog from them.
func New(cfg *config.Config, opts ...Option) (*Calculator, error) {
	if cfg == nil {
		return nil, errors.New("calculator requires a config")
	}
	bands, runnerOpts, err := cfg.RunnerOptions()
	if err != nil {
		return nil, err
	}
	c := &Calculator{
		bands:      bands,
		runnerOpts: runnerOpts,
		builtins:   core.BuiltinDevices(),
		log:        logging.Noop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Reload(context.Background(), c.initial); err != nil {
		return nil, err
	}
	c.initial = nil
	return c, nil
}

// Bands returns the band table every result is evaluated against.
func (c *Calculator) Bands() *core.BandTable {
	return c.bands
}

// Reload swaps in a new set of external batches. The batches are applied
// to a scratch catalog first; on error the current set stays in place.
func (c *Calculator) Reload(ctx context.Context, batches []devicefile.Batch) error {
	snapshot := append([]devicefile.Batch(nil), batches...)
	catalog, err := c.buildCatalog(snapshot)
	if err != nil {
		c.log.Warn(ctx, "device reload rejected", logging.Err(err))
		return err
	}
	c.batches.Store(&snapshot)
	if c.metrics != nil {
		c.metrics.SetCatalogSize(catalog.Len())
	}
	c.log.Debug(ctx, "device catalog updated",
		logging.Int("batches", len(snapshot)),
		logging.Int("devices", catalog.Len()),
	)
	return nil
}

// Devices lists every device visible in the current catalog.
func (c *Calculator) Devices(ctx context.Context) ([]model.DeviceDefinition, error) {
	catalog, err := c.catalog()
	if err != nil {
		return nil, err
	}
	return catalog.All(), nil
}

// Compute parses the raw specifiers, builds both endpoints, and returns
// the range report. Every malformed specifier and unknown device is
// reported in the returned error.
func (c *Calculator) Compute(ctx context.Context, from, to []string) (*core.Result, error) {
	ctx, log := logging.WithRunLogger(ctx, c.log)
	ctx, span := c.tracer.Start(ctx, "calc.Compute", trace.WithAttributes(
		attribute.StringSlice("commnet.from", from),
		attribute.StringSlice("commnet.to", to),
	))
	defer span.End()

	start := time.Now()
	res, err := c.compute(from, to)
	elapsed := time.Since(start)

	if err != nil {
		outcome := Outcome(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, outcome)
		c.observe(outcome, elapsed, 0)
		if outcome == observability.OutcomeRejected {
			log.Info(ctx, "range calculation rejected", logging.Err(err))
		} else {
			log.Error(ctx, "range calculation failed", logging.Err(err))
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("commnet.max_distance", res.MaxDistance),
		attribute.Float64("commnet.from_power", res.From.Power),
		attribute.Float64("commnet.to_power", res.To.Power),
	)
	c.observe(observability.OutcomeOK, elapsed, res.MaxDistance)
	log.Debug(ctx, "range calculated",
		logging.String("from_kind", res.From.Kind),
		logging.String("to_kind", res.To.Kind),
		logging.Float("max_distance", res.MaxDistance),
		logging.Any("elapsed", elapsed),
	)
	return res, nil
}

func (c *Calculator) compute(from, to []string) (*core.Result, error) {
	fromSpecs, errFrom := core.ParseSpecifiers(from)
	toSpecs, errTo := core.ParseSpecifiers(to)
	if errFrom != nil || errTo != nil {
		return nil, errors.Join(wrapSide("from", errFrom), wrapSide("to", errTo))
	}
	catalog, err := c.catalog()
	if err != nil {
		return nil, err
	}
	runner, err := core.NewRunner(catalog, c.bands, c.runnerOpts...)
	if err != nil {
		return nil, err
	}
	return runner.Run(fromSpecs, toSpecs)
}

func (c *Calculator) catalog() (*core.DeviceCatalog, error) {
	var batches []devicefile.Batch
	if p := c.batches.Load(); p != nil {
		batches = *p
	}
	return c.buildCatalog(batches)
}

func (c *Calculator) buildCatalog(batches []devicefile.Batch) (*core.DeviceCatalog, error) {
	catalog, err := core.NewDeviceCatalog(c.builtins)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		if err := catalog.Load(b.Devices); err != nil {
			return nil, fmt.Errorf("load %s: %w", b.Source, err)
		}
	}
	return catalog, nil
}

func (c *Calculator) observe(outcome string, elapsed time.Duration, maxDistance float64) {
	if c.metrics != nil {
		c.metrics.ObserveCalculation(outcome, elapsed, maxDistance)
	}
}

// Outcome classifies a calculation error for metrics: bad input is
// "rejected", everything else "failed".
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case IsInputError(err):
		return observability.OutcomeRejected
	default:
		return observability.OutcomeFailed
	}
}

// IsInputError reports whether err was caused by the caller's request.
func IsInputError(err error) bool {
	return errors.Is(err, core.ErrUnknownDevice) ||
		errors.Is(err, core.ErrInvalidCount) ||
		errors.Is(err, core.ErrInvalidSpecifier) ||
		errors.Is(err, core.ErrEmptyEndpoint)
}

func wrapSide(side string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s endpoint: %w", side, err)
}
