package prediction

import "math"

// adsRates returns the suppressed (D → K⁺π⁻ for B⁻) and favoured rates at
// B-side phase phiB = δB ± γ, including first-order D mixing.
// The interference terms are cos(phiB + δD) for the suppressed and
// cos(phiB − δD) for the favoured rate; with δD ≈ π for K π this is the
// sign convention under which Rads and Acp reduce to their usual forms.
func adsRates(phiB float64, b BDecay, d DDecay, m DMixing) (sup, fav float64) {
	rB2, rD2 := b.R*b.R, d.R*d.R
	kk := b.Kappa * d.Kappa
	sinD, cosD := math.Sincos(d.Delta)
	sinB, cosB := math.Sincos(phiB)

	re := d.Kappa*d.R*cosD*(1+rB2) + b.Kappa*b.R*(1+rD2)*cosB
	im := d.Kappa*d.R*sinD*(1-rB2) - b.Kappa*b.R*(1-rD2)*sinB
	ax, ay := m.ax(), m.ay()

	sup = rD2 + rB2 + 2*kk*b.R*d.R*math.Cos(phiB+d.Delta) - ay*re + ax*im
	fav = 1 + rB2*rD2 + 2*kk*b.R*d.R*math.Cos(phiB-d.Delta) - ay*re - ax*im
	return sup, fav
}

// AdsRates returns the suppressed and favoured rates of the given B charge.
func AdsRates(gamma float64, b BDecay, d DDecay, m DMixing, q Charge) (sup, fav float64) {
	return adsRates(b.Delta+float64(q)*gamma, b, d, m)
}

// Rp is the suppressed to favoured rate ratio for B⁺.
func Rp(gamma float64, b BDecay, d DDecay, m DMixing) float64 {
	sup, fav := AdsRates(gamma, b, d, m, Plus)
	return sup / fav
}

// Rm is the suppressed to favoured rate ratio for B⁻.
func Rm(gamma float64, b BDecay, d DDecay, m DMixing) float64 {
	sup, fav := AdsRates(gamma, b, d, m, Minus)
	return sup / fav
}

// Rads is the charge-averaged suppressed to favoured ratio:
//
//	[rD² + rB² + 2 rB rD κB κD cos γ cos(δB+δD) − α(…)] /
//	[1 + rB² rD² + 2 rB rD κB κD cos γ cos(δB−δD) − α(…)]
func Rads(gamma float64, b BDecay, d DDecay, m DMixing) float64 {
	supM, favM := AdsRates(gamma, b, d, m, Minus)
	supP, favP := AdsRates(gamma, b, d, m, Plus)
	return (supM + supP) / (favM + favP)
}

// Asup is the CP asymmetry of the suppressed mode, (Γ⁻ − Γ⁺)/(Γ⁻ + Γ⁺).
func Asup(gamma float64, b BDecay, d DDecay, m DMixing) float64 {
	supM, _ := AdsRates(gamma, b, d, m, Minus)
	supP, _ := AdsRates(gamma, b, d, m, Plus)
	return (supM - supP) / (supM + supP)
}

// Afav is the CP asymmetry of the favoured mode.
func Afav(gamma float64, b BDecay, d DDecay, m DMixing) float64 {
	_, favM := AdsRates(gamma, b, d, m, Minus)
	_, favP := AdsRates(gamma, b, d, m, Plus)
	return (favM - favP) / (favM + favP)
}

// Rfav is br times the favoured rate of mode bK over that of bPi, for one
// B charge. br is the ratio of the two branching fractions.
func Rfav(br, gamma float64, bK, bPi BDecay, d DDecay, m DMixing, q Charge) float64 {
	_, favK := AdsRates(gamma, bK, d, m, q)
	_, favPi := AdsRates(gamma, bPi, d, m, q)
	return br * favK / favPi
}

// RfavAvg is the charge-averaged Rfav.
func RfavAvg(br, gamma float64, bK, bPi BDecay, d DDecay, m DMixing) float64 {
	_, favKm := AdsRates(gamma, bK, d, m, Minus)
	_, favKp := AdsRates(gamma, bK, d, m, Plus)
	_, favPim := AdsRates(gamma, bPi, d, m, Minus)
	_, favPip := AdsRates(gamma, bPi, d, m, Plus)
	return br * (favKm + favKp) / (favPim + favPip)
}

// Rsup is br times the suppressed rate of mode bK over that of bPi, for
// one B charge.
func Rsup(br, gamma float64, bK, bPi BDecay, d DDecay, m DMixing, q Charge) float64 {
	supK, _ := AdsRates(gamma, bK, d, m, q)
	supPi, _ := AdsRates(gamma, bPi, d, m, q)
	return br * supK / supPi
}
