// Package prediction translates physics parameters into predicted
// observables. Every function is pure; angles are in radians.
//
// B± → D h amplitudes are written as A(B⁻ → D⁰h⁻) + rB e^{i(δB−γ)} A(B⁻ → D̄⁰h⁻),
// with A(D̄⁰ → K⁺π⁻) = 1 and A(D⁰ → K⁺π⁻) = rD e^{−iδD}. B⁺ rates follow by
// γ → −γ. Neutral D mixing enters at first order in x and y, weighted by
// α, the fraction of the decay-time integral seen by the measurement
// (α = 1 for an unbiased time-integrated rate).
package prediction

// Charge selects the B meson charge of a sign-dependent observable.
type Charge int

const (
	Minus Charge = -1
	Plus  Charge = +1
)

// BDecay carries the B-side hadronic parameters of one B → D h mode.
type BDecay struct {
	R     float64 // rB, suppressed to favoured amplitude ratio
	Delta float64 // δB, strong phase
	Kappa float64 // κB, coherence factor; 1 for two-body modes
}

// DDecay carries the D-side hadronic parameters of one D final state.
type DDecay struct {
	R     float64 // rD
	Delta float64 // δD, B-physics convention (δD ≈ π for K π)
	Kappa float64 // κD, coherence factor; 1 for two-body modes
}

// DMixing is the first-order D mixing input to B → D h rates.
type DMixing struct {
	Alpha float64 // time-acceptance weight
	X     float64 // x12
	Y     float64 // y12
}

func (m DMixing) ax() float64 { return m.Alpha * m.X }
func (m DMixing) ay() float64 { return m.Alpha * m.Y }
