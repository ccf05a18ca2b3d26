package core

import "math"

// RangeModel derives the maximum link distance from two combined powers.
type RangeModel struct {
	// Modifier scales every result; 0 is treated as 1.
	Modifier float64
}

// MaxDistance returns Modifier * sqrt(from * to). Non-positive or NaN
// powers mean no link is possible and yield 0. Results beyond the float64
// range saturate at math.MaxFloat64.
func (m RangeModel) MaxDistance(powerFrom, powerTo float64) float64 {
	if !(powerFrom > 0) || !(powerTo > 0) {
		return 0
	}
	mod := m.Modifier
	if mod <= 0 {
		mod = 1
	}
	return saturate(mod * math.Sqrt(powerFrom) * math.Sqrt(powerTo))
}

// saturate clamps +Inf to the largest finite float64 so results stay
// finite on the wire.
func saturate(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}
