package prediction

import "math"

// cpRate is the rate of B → D[f]h for a quasi-CP final state f with
// CP-even fraction fCP, at B-side phase phiB = δB ± γ.
func cpRate(phiB float64, b BDecay, fCP float64, m DMixing) float64 {
	eta := 2*fCP - 1
	ay := m.ay()
	return (1+b.R*b.R)*(1-ay*eta) + 2*b.Kappa*b.R*math.Cos(phiB)*(eta-ay)
}

// Acp is the direct CP asymmetry (Γ⁻ − Γ⁺)/(Γ⁻ + Γ⁺) for a self-conjugate
// D final state with CP-even fraction fCP:
//
//	2 rB κB sin γ sin δB [(2F−1) − αy] /
//	[(1+rB²)(1 − αy(2F−1)) + 2 rB κB cos γ cos δB ((2F−1) − αy)]
func Acp(gamma float64, b BDecay, fCP float64, m DMixing) float64 {
	eta := 2*fCP - 1
	ay := m.ay()
	num := 2 * b.R * b.Kappa * math.Sin(gamma) * math.Sin(b.Delta) * (eta - ay)
	den := (1+b.R*b.R)*(1-ay*eta) + 2*b.R*b.Kappa*math.Cos(gamma)*math.Cos(b.Delta)*(eta-ay)
	return num / den
}

// RcpH is the charge-averaged rate into a quasi-CP state relative to the
// favoured flavour-specific mode d of the same B decay. bCP and bCF may
// differ when the two are measured in different kinematic regions.
func RcpH(gamma float64, bCP, bCF BDecay, d DDecay, fCP float64, m DMixing) float64 {
	num := cpRate(bCP.Delta-gamma, bCP, fCP, m) + cpRate(bCP.Delta+gamma, bCP, fCP, m)
	_, favM := adsRates(bCF.Delta-gamma, bCF, d, m)
	_, favP := adsRates(bCF.Delta+gamma, bCF, d, m)
	return num / (favM + favP)
}

// CPRates returns the unnormalised B⁻ and B⁺ rates into a quasi-CP state.
func CPRates(gamma float64, b BDecay, fCP float64, m DMixing) (minus, plus float64) {
	return cpRate(b.Delta-gamma, b, fCP, m), cpRate(b.Delta+gamma, b, fCP, m)
}
