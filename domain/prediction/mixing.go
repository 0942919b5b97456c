package prediction

import "math"

// MixingParams are the phenomenological D mixing parameters.
type MixingParams struct {
	X   float64 // Δm/Γ
	Y   float64 // ΔΓ/2Γ
	QoP float64 // |q/p|
	Phi float64 // arg(q/p) relative to the decay amplitudes
}

// MixingFromTheory converts the dispersive and absorptive mixing
// amplitudes x12 = 2|M12|/Γ, y12 = |Γ12|/Γ and their relative phase φ12
// into (x, y, |q/p|, φ). It uses
//
//	x² − y² = x12² − y12²,  x y = x12 y12 cos φ12,
//	|q/p|⁴ = (x12² + y12² + 2 x12 y12 sin φ12) / (x12² + y12² − 2 x12 y12 sin φ12),
//
// and the superweak relation tan φ = x (1 − |q/p|²) / (y (1 + |q/p|²)).
// x is returned non-negative.
func MixingFromTheory(x12, y12, phi12 float64) MixingParams {
	sin12, cos12 := math.Sincos(phi12)
	sum := x12*x12 + y12*y12
	cross := 2 * x12 * y12 * sin12
	nPlus, nMinus := sum+cross, sum-cross

	s := math.Sqrt(math.Max(nPlus*nMinus, 0))
	d := x12*x12 - y12*y12
	x := math.Sqrt(math.Max((s+d)/2, 0))
	y := math.Sqrt(math.Max((s-d)/2, 0))
	if x12*y12*cos12 < 0 {
		y = -y
	}

	// |q/p| diverges (nMinus = 0) or vanishes (nPlus = 0) only at
	// x12 = ±y12 with φ12 = ±π/2; those points are outside the parameter
	// ranges and get |q/p| = 1.
	qop := 1.0
	if nMinus > 0 && nPlus > 0 {
		qop = math.Pow(nPlus/nMinus, 0.25)
	}

	q2 := qop * qop
	num := (1 - q2) * x
	den := (1 + q2) * y
	var phi float64
	switch {
	case den != 0:
		phi = math.Atan(num / den)
	case num != 0:
		phi = math.Copysign(math.Pi/2, num)
	}
	return MixingParams{X: x, Y: y, QoP: qop, Phi: phi}
}

// YCP is the lifetime difference between CP-even and flavour eigenstates.
func YCP(m MixingParams) float64 {
	sinP, cosP := math.Sincos(m.Phi)
	pq := 1 / m.QoP
	return 0.5*(m.QoP+pq)*m.Y*cosP - 0.5*(m.QoP-pq)*m.X*sinP
}

// AGamma is the asymmetry of D⁰ and D̄⁰ effective lifetimes into CP eigenstates.
func AGamma(m MixingParams) float64 {
	sinP, cosP := math.Sincos(m.Phi)
	pq := 1 / m.QoP
	return 0.5*(m.QoP-pq)*m.Y*cosP - 0.5*(m.QoP+pq)*m.X*sinP
}

// WrongSign holds the rotated mixing coordinates measured in
// time-dependent D → K⁺π⁻ analyses, for D⁰ (Plus) and D̄⁰ (Minus).
type WrongSign struct {
	XPlus, YPlus   float64
	XMinus, YMinus float64
}

// WrongSignCoordinates rotates (x, y) by the strong phase delta (charm
// convention), then by φ, scaling by |q/p| for D⁰ and by |p/q| with the
// phase flipped for D̄⁰:
//
//	x'± = |q/p|^{±1} (x' cos φ ± y' sin φ)
//	y'± = |q/p|^{±1} (y' cos φ ∓ x' sin φ)
//
// x'₊x'₋ + y'₊y'₋ = (x² + y²) cos 2φ for every delta.
func WrongSignCoordinates(m MixingParams, delta float64) WrongSign {
	sinD, cosD := math.Sincos(delta)
	xr := m.X*cosD + m.Y*sinD
	yr := m.Y*cosD - m.X*sinD

	sinP, cosP := math.Sincos(m.Phi)
	pq := 1 / m.QoP
	return WrongSign{
		XPlus:  m.QoP * (xr*cosP + yr*sinP),
		YPlus:  m.QoP * (yr*cosP - xr*sinP),
		XMinus: pq * (xr*cosP - yr*sinP),
		YMinus: pq * (yr*cosP + xr*sinP),
	}
}

// XPlus returns x'₊ at strong phase delta.
func XPlus(m MixingParams, delta float64) float64 { return WrongSignCoordinates(m, delta).XPlus }

// YPlus returns y'₊ at strong phase delta.
func YPlus(m MixingParams, delta float64) float64 { return WrongSignCoordinates(m, delta).YPlus }

// XMinus returns x'₋ at strong phase delta.
func XMinus(m MixingParams, delta float64) float64 { return WrongSignCoordinates(m, delta).XMinus }

// YMinus returns y'₋ at strong phase delta.
func YMinus(m MixingParams, delta float64) float64 { return WrongSignCoordinates(m, delta).YMinus }
