package core

import (
	"fmt"
	"math"
)

// DecayCurve maps a relative distance r = distance/max_distance onto a
// signal strength in [0,1]. Implementations must return 1 at r = 0 and
// 0 for r >= 1, be non-increasing, and be continuous on [0,1].
type DecayCurve interface {
	Strength(r float64) float64
	Name() string
}

// SmoothstepCurve is the cubic (3-2x)x^2 with x = 1 - r: a gentle roll-off
// near the transmitter and a soft landing at the range edge.
type SmoothstepCurve struct{}

func (SmoothstepCurve) Name() string { return "smoothstep" }

func (SmoothstepCurve) Strength(r float64) float64 {
	if r <= 0 {
		return 1
	}
	if r >= 1 {
		return 0
	}
	x := 1 - r
	return (3 - 2*x) * x * x
}

// PiecewiseCurve falls linearly from 1 at r = 0 to KneeStrength at
// r = Knee, then linearly to 0 at r = 1.
type PiecewiseCurve struct {
	Knee         float64
	KneeStrength float64
}

// NewPiecewiseCurve validates knee in (0,1) and kneeStrength in [0,1].
func NewPiecewiseCurve(knee, kneeStrength float64) (PiecewiseCurve, error) {
	if math.IsNaN(knee) || knee <= 0 || knee >= 1 {
		return PiecewiseCurve{}, fmt.Errorf("%w: knee %v must be in (0,1)", ErrInvalidCurve, knee)
	}
	if math.IsNaN(kneeStrength) || kneeStrength < 0 || kneeStrength > 1 {
		return PiecewiseCurve{}, fmt.Errorf("%w: knee strength %v must be in [0,1]", ErrInvalidCurve, kneeStrength)
	}
	return PiecewiseCurve{Knee: knee, KneeStrength: kneeStrength}, nil
}

func (PiecewiseCurve) Name() string { return "piecewise" }

func (c PiecewiseCurve) Strength(r float64) float64 {
	switch {
	case r <= 0:
		return 1
	case r >= 1:
		return 0
	case r <= c.Knee:
		return 1 - (1-c.KneeStrength)*(r/c.Knee)
	default:
		return c.KneeStrength * (1 - r) / (1 - c.Knee)
	}
}
