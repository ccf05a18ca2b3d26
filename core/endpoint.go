package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/commnet-calculator/model"
)

// Endpoint kinds reported by Endpoint.Kind.
const (
	EndpointKindDSN    = "Deep Space Network"
	EndpointKindRelay  = "Relay"
	EndpointKindVessel = "Vessel"
)

// Contribution is one (device, count) pair added to an endpoint.
type Contribution struct {
	Device model.DeviceDefinition
	Count  int
}

// Endpoint is one side of a link: an ordered list of contributions.
// Repeated devices are kept as separate entries.
type Endpoint struct {
	contribs []Contribution
}

// NewEndpoint returns an empty endpoint.
func NewEndpoint() *Endpoint {
	return &Endpoint{}
}

// Add appends count copies of device. Count must be >= 1.
func (e *Endpoint) Add(device model.DeviceDefinition, count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d x %q", ErrInvalidCount, count, device.Name)
	}
	e.contribs = append(e.contribs, Contribution{Device: device.Clone(), Count: count})
	return nil
}

// IsEmpty reports whether nothing was ever added.
func (e *Endpoint) IsEmpty() bool {
	return e == nil || len(e.contribs) == 0
}

// Contributions returns a copy of the added pairs in insertion order.
func (e *Endpoint) Contributions() []Contribution {
	if e == nil {
		return nil
	}
	return append([]Contribution(nil), e.contribs...)
}

// Counts groups contributions by device name, summing counts, in
// first-seen order.
func (e *Endpoint) Counts() []Contribution {
	if e == nil {
		return nil
	}
	idx := make(map[string]int, len(e.contribs))
	var out []Contribution
	for _, c := range e.contribs {
		if i, ok := idx[c.Device.Name]; ok {
			out[i].Count += c.Count
			continue
		}
		idx[c.Device.Name] = len(out)
		out = append(out, c)
	}
	return out
}

// Kind describes the endpoint by the most capable device class present.
func (e *Endpoint) Kind() string {
	kind := EndpointKindVessel
	if e == nil {
		return kind
	}
	for _, c := range e.contribs {
		switch c.Device.Class {
		case model.DeviceClassDSN:
			return EndpointKindDSN
		case model.DeviceClassRelay:
			kind = EndpointKindRelay
		}
	}
	return kind
}

// CombinedPower folds every device instance into one effective power:
//
//	P_max * (1 + sum over non-anchor instances of (P_i/P_max)^E_i)
//
// where the anchor is one instance holding the maximum power. A device
// with E_i = 0 adds nothing unless it ties the maximum.
func (e *Endpoint) CombinedPower() float64 {
	if e.IsEmpty() {
		return 0
	}

	pmax := 0.0
	for _, c := range e.contribs {
		if c.Device.Power > pmax {
			pmax = c.Device.Power
		}
	}
	if pmax <= 0 {
		return 0
	}

	sum := 0.0
	anchored := false
	for _, c := range e.contribs {
		n := c.Count
		if !anchored && c.Device.Power == pmax {
			anchored = true
			n--
		}
		if n <= 0 {
			continue
		}
		sum += float64(n) * relativeGain(c.Device.Power, pmax, c.Device.CombinabilityExponent)
	}
	return saturate(pmax * (1 + sum))
}

// relativeGain is (p/pmax)^exp with non-combinable weaker devices and
// powerless devices contributing nothing.
func relativeGain(p, pmax, exp float64) float64 {
	if p <= 0 {
		return 0
	}
	if exp == 0 && p < pmax {
		return 0
	}
	return math.Pow(p/pmax, exp)
}
