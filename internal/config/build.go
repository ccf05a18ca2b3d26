package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/observability"
)

// Supported signal.curve values.
const (
	CurveSmoothstep = "smoothstep"
	CurvePiecewise  = "piecewise"
)

// Validate checks every setting that feeds the core model and reports all
// problems at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.BandTable(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ReferenceTable(); err != nil {
		errs = append(errs, err)
	}
	if m := c.Range.Modifier; m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		errs = append(errs, fmt.Errorf("range.modifier must be a finite value >= 0, got %v", m))
	}
	if _, _, err := c.DefaultSpecs(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if r := c.Tracing.SampleRatio; !(r >= 0 && r <= 1) {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be within [0,1], got %v", r))
	}
	switch c.Tracing.Exporter {
	case "", observability.ExporterStdout, observability.ExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be %s or %s, got %q",
			observability.ExporterStdout, observability.ExporterOTLP, c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}

// Curve builds the configured decay curve.
func (c *Config) Curve() (core.DecayCurve, error) {
	switch c.Signal.Curve {
	case "", CurveSmoothstep:
		return core.SmoothstepCurve{}, nil
	case CurvePiecewise:
		return core.NewPiecewiseCurve(c.Signal.Knee, c.Signal.KneeStrength)
	default:
		return nil, fmt.Errorf("%w: unknown curve %q", core.ErrInvalidCurve, c.Signal.Curve)
	}
}

// BandTable builds the fractional band table. No configured bands selects
// core.DefaultBands.
func (c *Config) BandTable() (*core.BandTable, error) {
	curve, err := c.Curve()
	if err != nil {
		return nil, err
	}
	bands := core.DefaultBands()
	if len(c.Signal.Bands) > 0 {
		bands = make([]core.Band, 0, len(c.Signal.Bands))
		for _, b := range c.Signal.Bands {
			bands = append(bands, core.Band{Label: b.Label, Near: b.Near, Far: b.Far})
		}
	}
	return core.NewBandTable(bands, curve)
}

// ReferenceTable builds the absolute reference distances, or returns nil
// when references are switched off.
func (c *Config) ReferenceTable() (*core.ReferenceTable, error) {
	if !c.Signal.ShowReferences {
		return nil, nil
	}
	curve, err := c.Curve()
	if err != nil {
		return nil, err
	}
	refs := core.DefaultReferenceDistances()
	if len(c.Signal.References) > 0 {
		refs = make([]core.ReferenceDistance, 0, len(c.Signal.References))
		for _, r := range c.Signal.References {
			refs = append(refs, core.ReferenceDistance{Label: r.Label, Min: r.Min, Max: r.Max})
		}
	}
	return core.NewReferenceTable(refs, curve)
}

// RangeModel returns the configured range model.
func (c *Config) RangeModel() core.RangeModel {
	return core.RangeModel{Modifier: c.Range.Modifier}
}

// DefaultSpecs parses defaults.from and defaults.to.
func (c *Config) DefaultSpecs() (from, to core.Spec, err error) {
	from, errFrom := core.ParseSpecifier(c.Defaults.From)
	if errFrom != nil {
		errFrom = fmt.Errorf("defaults.from: %w", errFrom)
	}
	to, errTo := core.ParseSpecifier(c.Defaults.To)
	if errTo != nil {
		errTo = fmt.Errorf("defaults.to: %w", errTo)
	}
	return from, to, errors.Join(errFrom, errTo)
}

// RunnerOptions collects the core runner options described by c. The band
// table is returned separately because NewRunner takes it positionally.
func (c *Config) RunnerOptions() (*core.BandTable, []core.RunnerOption, error) {
	bands, err := c.BandTable()
	if err != nil {
		return nil, nil, err
	}
	refs, err := c.ReferenceTable()
	if err != nil {
		return nil, nil, err
	}
	from, to, err := c.DefaultSpecs()
	if err != nil {
		return nil, nil, err
	}
	opts := []core.RunnerOption{
		core.WithRangeModel(c.RangeModel()),
		core.WithDefaults(from, to),
	}
	if refs != nil {
		opts = append(opts, core.WithReferenceTable(refs))
	}
	return bands, opts, nil
}
