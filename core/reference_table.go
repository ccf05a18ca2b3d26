package core

import (
	"fmt"
	"math"
)

// ReferenceDistance is a named absolute distance range in metres, e.g.
// the closest and farthest separation between two bodies.
type ReferenceDistance struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// DefaultReferenceDistances are Kerbin-to-body separations using
// circular-orbit approximations of the stock system.
func DefaultReferenceDistances() []ReferenceDistance {
	return []ReferenceDistance{
		{Label: "Kerbin - Mun", Min: 12.0e6, Max: 12.0e6},
		{Label: "Kerbin - Minmus", Min: 47.0e6, Max: 47.0e6},
		{Label: "Kerbin - Moho", Min: 8.337e9, Max: 18.863e9},
		{Label: "Kerbin - Eve", Min: 3.767e9, Max: 23.433e9},
		{Label: "Kerbin - Duna", Min: 7.126e9, Max: 34.326e9},
		{Label: "Kerbin - Dres", Min: 27.239e9, Max: 54.439e9},
		{Label: "Kerbin - Jool", Min: 55.174e9, Max: 82.374e9},
		{Label: "Kerbin - Eeloo", Min: 76.519e9, Max: 103.719e9},
	}
}

// ReferenceTable evaluates signal strength at fixed absolute distances.
type ReferenceTable struct {
	refs  []ReferenceDistance
	curve DecayCurve
}

// NewReferenceTable validates that every range satisfies 0 <= Min <= Max.
func NewReferenceTable(refs []ReferenceDistance, curve DecayCurve) (*ReferenceTable, error) {
	for i, r := range refs {
		if r.Label == "" {
			return nil, fmt.Errorf("%w: reference %d has no label", ErrInvalidBands, i)
		}
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min < 0 || r.Max < r.Min {
			return nil, fmt.Errorf("%w: reference %q [%v, %v] is not a valid range", ErrInvalidBands, r.Label, r.Min, r.Max)
		}
	}
	if curve == nil {
		curve = SmoothstepCurve{}
	}
	return &ReferenceTable{refs: append([]ReferenceDistance(nil), refs...), curve: curve}, nil
}

// References returns a copy of the configured ranges.
func (t *ReferenceTable) References() []ReferenceDistance {
	if t == nil {
		return nil
	}
	return append([]ReferenceDistance(nil), t.refs...)
}

// Evaluate reads strength at each range's Min and Max for maxDistance.
func (t *ReferenceTable) Evaluate(maxDistance float64) []SignalEntry {
	if t == nil {
		return nil
	}
	out := make([]SignalEntry, 0, len(t.refs))
	for _, r := range t.refs {
		out = append(out, SignalEntry{
			Label:        r.Label,
			NearDistance: r.Min,
			FarDistance:  r.Max,
			AtNear:       optionalStrength(t.curve, r.Min, maxDistance),
			AtFar:        optionalStrength(t.curve, r.Max, maxDistance),
		})
	}
	return out
}
