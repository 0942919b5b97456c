package prediction

import "math"

// Cartesian holds the B-side GGSZ coordinates x± = rB cos(δB ± γ),
// y± = rB sin(δB ± γ).
type Cartesian struct {
	XMinus, YMinus float64
	XPlus, YPlus   float64
}

// GGSZ returns the Cartesian coordinates of mode b.
func GGSZ(gamma float64, b BDecay) Cartesian {
	sm, cm := math.Sincos(b.Delta - gamma)
	sp, cp := math.Sincos(b.Delta + gamma)
	return Cartesian{
		XMinus: b.R * cm,
		YMinus: b.R * sm,
		XPlus:  b.R * cp,
		YPlus:  b.R * sp,
	}
}
