package core

import (
	"fmt"
	"math"
)

// fractionTolerance absorbs rounding when configured fractions are
// written as decimals (e.g. 0.1 + 0.2).
const fractionTolerance = 1e-9

// Band is a named slice [Near, Far] of the [0, max_distance] interval,
// expressed as fractions of max distance.
type Band struct {
	Label string  `json:"label"`
	Near  float64 `json:"near"`
	Far   float64 `json:"far"`
}

// SignalEntry is the strength reading at a band's two edges. A nil
// strength means "not applicable" (no link possible).
type SignalEntry struct {
	Label        string   `json:"label"`
	NearDistance float64  `json:"near_distance"`
	FarDistance  float64  `json:"far_distance"`
	AtNear       *float64 `json:"at_near"`
	AtFar        *float64 `json:"at_far"`
}

// DefaultBands splits [0,1] into quarters.
func DefaultBands() []Band {
	return []Band{
		{Label: "Near", Near: 0, Far: 0.25},
		{Label: "Mid", Near: 0.25, Far: 0.5},
		{Label: "Far", Near: 0.5, Far: 0.75},
		{Label: "Edge", Near: 0.75, Far: 1},
	}
}

// BandTable is an immutable ordered set of bands plus the decay curve
// used to read strengths.
type BandTable struct {
	bands []Band
	curve DecayCurve
}

// NewBandTable validates that bands partition [0,1] in order with no
// gaps or overlaps. A nil curve selects SmoothstepCurve.
func NewBandTable(bands []Band, curve DecayCurve) (*BandTable, error) {
	if err := ValidateBands(bands); err != nil {
		return nil, err
	}
	if curve == nil {
		curve = SmoothstepCurve{}
	}
	out := append([]Band(nil), bands...)
	// Snap shared edges so Evaluate reads identical distances for
	// band i's far edge and band i+1's near edge.
	out[0].Near = 0
	out[len(out)-1].Far = 1
	for i := 1; i < len(out); i++ {
		out[i].Near = out[i-1].Far
	}
	return &BandTable{bands: out, curve: curve}, nil
}

// ValidateBands checks the partition invariant.
func ValidateBands(bands []Band) error {
	if len(bands) == 0 {
		return fmt.Errorf("%w: no bands", ErrInvalidBands)
	}
	if !near(bands[0].Near, 0) {
		return fmt.Errorf("%w: first band %q starts at %v, want 0", ErrInvalidBands, bands[0].Label, bands[0].Near)
	}
	if last := bands[len(bands)-1]; !near(last.Far, 1) {
		return fmt.Errorf("%w: last band %q ends at %v, want 1", ErrInvalidBands, last.Label, last.Far)
	}
	for i, b := range bands {
		if b.Label == "" {
			return fmt.Errorf("%w: band %d has no label", ErrInvalidBands, i)
		}
		if math.IsNaN(b.Near) || math.IsNaN(b.Far) || b.Near < 0 || b.Far > 1+fractionTolerance || !(b.Near < b.Far) {
			return fmt.Errorf("%w: band %q [%v, %v] is not a proper sub-range of [0,1]", ErrInvalidBands, b.Label, b.Near, b.Far)
		}
		if i > 0 && !near(bands[i-1].Far, b.Near) {
			return fmt.Errorf("%w: band %q starts at %v but %q ends at %v", ErrInvalidBands, b.Label, b.Near, bands[i-1].Label, bands[i-1].Far)
		}
	}
	return nil
}

// Bands returns a copy of the bands.
func (t *BandTable) Bands() []Band {
	return append([]Band(nil), t.bands...)
}

// Curve returns the decay curve in use.
func (t *BandTable) Curve() DecayCurve {
	return t.curve
}

// StrengthAt reads the signal at distance for a link of maxDistance.
// ok is false when maxDistance is 0: no link at any distance. Past the
// edge the signal is simply lost and reads 0.
func (t *BandTable) StrengthAt(distance, maxDistance float64) (strength float64, ok bool) {
	return strengthAt(t.curve, distance, maxDistance)
}

// Evaluate reads every band's near and far edge for maxDistance.
// Strengths come from the band fractions, so they do not depend on the
// magnitude of maxDistance.
func (t *BandTable) Evaluate(maxDistance float64) []SignalEntry {
	out := make([]SignalEntry, 0, len(t.bands))
	for _, b := range t.bands {
		out = append(out, SignalEntry{
			Label:        b.Label,
			NearDistance: b.Near * maxDistance,
			FarDistance:  b.Far * maxDistance,
			AtNear:       fractionStrength(t.curve, b.Near, maxDistance),
			AtFar:        fractionStrength(t.curve, b.Far, maxDistance),
		})
	}
	return out
}

func strengthAt(curve DecayCurve, distance, maxDistance float64) (float64, bool) {
	if !(maxDistance > 0) {
		return 0, false
	}
	if math.IsNaN(distance) {
		return 0, true
	}
	if distance <= 0 {
		return 1, true
	}
	if distance >= maxDistance {
		return 0, true
	}
	return ratioStrength(curve, distance/maxDistance), true
}

// ratioStrength reads the curve at d/D, pinning both ends.
func ratioStrength(curve DecayCurve, ratio float64) float64 {
	switch {
	case ratio <= 0:
		return 1
	case ratio >= 1:
		return 0
	}
	return clamp01(curve.Strength(ratio))
}

func fractionStrength(curve DecayCurve, fraction, maxDistance float64) *float64 {
	if !(maxDistance > 0) {
		return nil
	}
	s := ratioStrength(curve, fraction)
	return &s
}

func optionalStrength(curve DecayCurve, distance, maxDistance float64) *float64 {
	s, ok := strengthAt(curve, distance, maxDistance)
	if !ok {
		return nil
	}
	return &s
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= fractionTolerance
}
