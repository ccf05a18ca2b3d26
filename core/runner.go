package core

import (
	"errors"
	"fmt"
)

// DeviceCount is a resolved device name with its total count.
type DeviceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// EndpointReport describes one endpoint of a calculation.
type EndpointReport struct {
	Kind    string        `json:"kind"`
	Power   float64       `json:"power"`
	Devices []DeviceCount `json:"devices"`
}

// Result is everything a report formatter needs from one calculation.
type Result struct {
	From        EndpointReport `json:"from"`
	To          EndpointReport `json:"to"`
	MaxDistance float64        `json:"max_distance"`
	Signals     []SignalEntry  `json:"signals"`
	References  []SignalEntry  `json:"references,omitempty"`
}

// Runner wires catalog, endpoints, range model, and band table together.
type Runner struct {
	catalog     *DeviceCatalog
	bands       *BandTable
	references  *ReferenceTable
	rangeModel  RangeModel
	defaultFrom Spec
	defaultTo   Spec
}

// RunnerOption customises Runner construction.
type RunnerOption func(*Runner)

// WithRangeModel replaces the default RangeModel.
func WithRangeModel(m RangeModel) RunnerOption {
	return func(r *Runner) {
		r.rangeModel = m
	}
}

// WithReferenceTable adds absolute reference distances to every result.
func WithReferenceTable(t *ReferenceTable) RunnerOption {
	return func(r *Runner) {
		r.references = t
	}
}

// WithDefaults sets the fallback devices used when an endpoint has no specs.
func WithDefaults(from, to Spec) RunnerOption {
	return func(r *Runner) {
		r.defaultFrom = from
		r.defaultTo = to
	}
}

// NewRunner builds a Runner over catalog. A nil bands table selects
// DefaultBands with the smoothstep curve.
func NewRunner(catalog *DeviceCatalog, bands *BandTable, opts ...RunnerOption) (*Runner, error) {
	if catalog == nil {
		return nil, errors.New("runner requires a device catalog")
	}
	if bands == nil {
		var err error
		if bands, err = NewBandTable(DefaultBands(), nil); err != nil {
			return nil, err
		}
	}
	r := &Runner{
		catalog:     catalog,
		bands:       bands,
		defaultFrom: Spec{Count: 1, Key: DefaultFromDevice},
		defaultTo:   Spec{Count: 1, Key: DefaultToDevice},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// BuildEndpoint resolves every spec against the catalog. Each failing
// spec is reported independently. With no specs, exactly one def pair
// is applied.
func (r *Runner) BuildEndpoint(specs []Spec, def Spec) (*Endpoint, error) {
	if len(specs) == 0 {
		specs = []Spec{def}
	}
	ep := NewEndpoint()
	var errs []error
	for _, s := range specs {
		device, ok := r.catalog.Resolve(s.Key)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownDevice, s.Key))
			continue
		}
		if err := ep.Add(device, s.Count); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	return ep, nil
}

// Run builds both endpoints and evaluates the link between them.
func (r *Runner) Run(fromSpecs, toSpecs []Spec) (*Result, error) {
	from, errFrom := r.BuildEndpoint(fromSpecs, r.defaultFrom)
	to, errTo := r.BuildEndpoint(toSpecs, r.defaultTo)
	if errFrom != nil || errTo != nil {
		return nil, errors.Join(wrapSide("from", errFrom), wrapSide("to", errTo))
	}
	if from.IsEmpty() {
		return nil, fmt.Errorf("%w: from", ErrEmptyEndpoint)
	}
	if to.IsEmpty() {
		return nil, fmt.Errorf("%w: to", ErrEmptyEndpoint)
	}

	pf := from.CombinedPower()
	pt := to.CombinedPower()
	maxDist := r.rangeModel.MaxDistance(pf, pt)

	return &Result{
		From:        describe(from, pf),
		To:          describe(to, pt),
		MaxDistance: maxDist,
		Signals:     r.bands.Evaluate(maxDist),
		References:  r.references.Evaluate(maxDist),
	}, nil
}

// Catalog exposes the catalog the runner resolves against.
func (r *Runner) Catalog() *DeviceCatalog {
	return r.catalog
}

func describe(ep *Endpoint, power float64) EndpointReport {
	counts := ep.Counts()
	devices := make([]DeviceCount, 0, len(counts))
	for _, c := range counts {
		devices = append(devices, DeviceCount{Name: c.Device.Name, Count: c.Count})
	}
	return EndpointReport{Kind: ep.Kind(), Power: power, Devices: devices}
}

func wrapSide(side string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s endpoint: %w", side, err)
}

// joinErrors returns the single error unchanged, or errors.Join of many.
func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
