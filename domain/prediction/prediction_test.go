package prediction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-12

var (
	noMixing = DMixing{}
	kpi      = DDecay{R: 0.0587, Delta: 3.32, Kappa: 1}
	k3pi     = DDecay{R: 0.0549, Delta: 2.97, Kappa: 0.44}
	dk       = BDecay{R: 0.0985, Delta: 2.23, Kappa: 1}
	dpi      = BDecay{R: 0.0050, Delta: 5.1, Kappa: 1}
)

func TestAcp_ReducesToTwoBodyForm(t *testing.T) {
	b := BDecay{R: 0.1, Delta: 1.0, Kappa: 1}

	g := math.Pi / 2
	want := 2 * 0.1 * math.Sin(g) * math.Sin(1.0) / (1.01 + 0.2*math.Cos(g)*math.Cos(1.0))
	assert.InDelta(t, want, Acp(g, b, 1, noMixing), tol)
	assert.InDelta(t, 0.2*math.Sin(1.0)/1.01, Acp(g, b, 1, noMixing), 1e-15)

	assert.Equal(t, 0.0, Acp(0, b, 1, noMixing), "no weak phase, no asymmetry")
}

func TestAcp_MatchesRateAsymmetry(t *testing.T) {
	cases := []struct {
		gamma float64
		b     BDecay
		f     float64
		m     DMixing
	}{
		{1.2, dk, 1, noMixing},
		{1.2, dk, 0.973, DMixing{Alpha: 1, X: 0.004, Y: 0.006}},
		{0.7, BDecay{R: 0.25, Delta: 3.5, Kappa: 0.95}, 0.769, DMixing{Alpha: 0.8, X: 0.004, Y: 0.006}},
		{2.5, dpi, 0, DMixing{Alpha: 1, Y: 0.006}},
	}
	for _, c := range cases {
		minus, plus := CPRates(c.gamma, c.b, c.f, c.m)
		assert.InDelta(t, (minus-plus)/(minus+plus), Acp(c.gamma, c.b, c.f, c.m), tol)
	}
}

func TestAcp_CPOddFlipsSign(t *testing.T) {
	even := Acp(1.2, dk, 1, noMixing)
	odd := Acp(1.2, dk, 0, noMixing)
	assert.Greater(t, math.Abs(even), 0.0)
	assert.Less(t, even*odd, 0.0)
}

func TestAcp_MixingDilutes(t *testing.T) {
	clean := Acp(1.2, dk, 0.973, noMixing)
	mixed := Acp(1.2, dk, 0.973, DMixing{Alpha: 1, X: 0.004, Y: 0.006})
	assert.Less(t, math.Abs(mixed), math.Abs(clean))
}

func TestRcpH_NoDSuppression(t *testing.T) {
	d := DDecay{R: 0, Delta: 0, Kappa: 1}
	g := 1.2
	want := 1 + dk.R*dk.R + 2*dk.R*math.Cos(dk.Delta)*math.Cos(g)
	assert.InDelta(t, want, RcpH(g, dk, dk, d, 1, noMixing), tol)
}

func TestRads_MatchesClosedForm(t *testing.T) {
	for _, d := range []DDecay{kpi, k3pi} {
		for _, g := range []float64{0, 0.5, 1.2, 2.9} {
			kk := dk.Kappa * d.Kappa
			num := d.R*d.R + dk.R*dk.R + 2*dk.R*d.R*kk*math.Cos(g)*math.Cos(dk.Delta+d.Delta)
			den := 1 + d.R*d.R*dk.R*dk.R + 2*dk.R*d.R*kk*math.Cos(g)*math.Cos(dk.Delta-d.Delta)
			assert.InDelta(t, num/den, Rads(g, dk, d, noMixing), tol)
		}
	}
}

func TestAsupAfav_MatchClosedForm(t *testing.T) {
	g := 1.2
	kk := dk.Kappa * k3pi.Kappa
	rr := dk.R * k3pi.R

	asup := 2 * rr * kk * math.Sin(dk.Delta+k3pi.Delta) * math.Sin(g) /
		(dk.R*dk.R + k3pi.R*k3pi.R + 2*rr*kk*math.Cos(dk.Delta+k3pi.Delta)*math.Cos(g))
	assert.InDelta(t, asup, Asup(g, dk, k3pi, noMixing), tol)

	afav := 2 * rr * kk * math.Sin(dk.Delta-k3pi.Delta) * math.Sin(g) /
		(1 + rr*rr + 2*rr*kk*math.Cos(dk.Delta-k3pi.Delta)*math.Cos(g))
	assert.InDelta(t, afav, Afav(g, dk, k3pi, noMixing), tol)
}

func TestADS_NoWeakPhaseIsChargeSymmetric(t *testing.T) {
	m := DMixing{Alpha: 1, X: 0.004, Y: 0.006}
	assert.InDelta(t, Rp(0, dk, kpi, m), Rm(0, dk, kpi, m), tol)
	assert.InDelta(t, 0, Asup(0, dk, kpi, m), tol)
	assert.InDelta(t, 0, Afav(0, dk, kpi, m), tol)
}

func TestADS_RatesArePositive(t *testing.T) {
	m := DMixing{Alpha: 1, X: 0.004, Y: 0.006}
	for g := 0.0; g < math.Pi; g += 0.1 {
		for _, q := range []Charge{Minus, Plus} {
			sup, fav := AdsRates(g, dk, kpi, m, q)
			assert.Greater(t, sup, 0.0)
			assert.Greater(t, fav, 0.0)
		}
	}
}

func TestADS_RadsWithinChargeRatios(t *testing.T) {
	g := 1.2
	rp, rm := Rp(g, dk, kpi, noMixing), Rm(g, dk, kpi, noMixing)
	rads := Rads(g, dk, kpi, noMixing)
	assert.GreaterOrEqual(t, rads, math.Min(rp, rm))
	assert.LessOrEqual(t, rads, math.Max(rp, rm))
}

func TestRfavRsup_SameModeGivesBranchingRatio(t *testing.T) {
	m := DMixing{Alpha: 1, X: 0.004, Y: 0.006}
	assert.InDelta(t, 0.0775, Rfav(0.0775, 1.2, dk, dk, kpi, m, Plus), tol)
	assert.InDelta(t, 0.0775, RfavAvg(0.0775, 1.2, dk, dk, kpi, m), tol)
	assert.InDelta(t, 0.0775, Rsup(0.0775, 1.2, dk, dk, kpi, m, Minus), tol)

	// DK favoured rates barely move with gamma, suppressed ones do.
	assert.InDelta(t, 0.0775, RfavAvg(0.0775, 1.2, dk, dpi, kpi, noMixing), 0.01)
	assert.NotEqual(t,
		Rsup(0.0775, 1.2, dk, dpi, kpi, noMixing, Minus),
		Rsup(0.0775, 1.2, dk, dpi, kpi, noMixing, Plus))
}

func TestMixingFromTheory_NoCPViolation(t *testing.T) {
	m := MixingFromTheory(0.004, 0.006, 0)
	assert.InDelta(t, 0.004, m.X, tol)
	assert.InDelta(t, 0.006, m.Y, tol)
	assert.InDelta(t, 1, m.QoP, tol)
	assert.InDelta(t, 0, m.Phi, tol)

	assert.InDelta(t, 0.006, YCP(m), tol)
	assert.InDelta(t, 0, AGamma(m), tol)
}

func TestMixingFromTheory_Relations(t *testing.T) {
	for _, in := range [][3]float64{
		{0.004, 0.006, 0.05},
		{0.004, 0.006, -0.3},
		{0.006, 0.002, 1.0},
		{0.004, 0.006, 2.5},
	} {
		x12, y12, phi12 := in[0], in[1], in[2]
		m := MixingFromTheory(x12, y12, phi12)

		assert.InDelta(t, x12*x12-y12*y12, m.X*m.X-m.Y*m.Y, 1e-15)
		assert.InDelta(t, x12*y12*math.Cos(phi12), m.X*m.Y, 1e-15)
		assert.GreaterOrEqual(t, m.X, 0.0)
		assert.Greater(t, m.QoP, 0.0)
		assert.Less(t, math.Abs(m.Phi), math.Pi/2+tol)
	}

	// Opposite phases swap |q/p| and |p/q|.
	a := MixingFromTheory(0.004, 0.006, 0.2)
	b := MixingFromTheory(0.004, 0.006, -0.2)
	assert.InDelta(t, 1/a.QoP, b.QoP, tol)
	assert.InDelta(t, -a.Phi, b.Phi, tol)
}

func TestWrongSign_RotationInvariant(t *testing.T) {
	for _, m := range []MixingParams{
		{X: 0.004, Y: 0.006, QoP: 1, Phi: 0},
		{X: 0.004, Y: 0.006, QoP: 0.9, Phi: -0.1},
		MixingFromTheory(0.005, 0.007, 0.4),
	} {
		want := (m.X*m.X + m.Y*m.Y) * math.Cos(2*m.Phi)
		for delta := -math.Pi; delta <= math.Pi; delta += 0.25 {
			ws := WrongSignCoordinates(m, delta)
			assert.InDelta(t, want, ws.XPlus*ws.XMinus+ws.YPlus*ws.YMinus, 1e-15)

			assert.Equal(t, ws.XPlus, XPlus(m, delta))
			assert.Equal(t, ws.YPlus, YPlus(m, delta))
			assert.Equal(t, ws.XMinus, XMinus(m, delta))
			assert.Equal(t, ws.YMinus, YMinus(m, delta))
		}
	}
}

func TestWrongSign_NoCPViolationIsChargeSymmetric(t *testing.T) {
	m := MixingParams{X: 0.004, Y: 0.006, QoP: 1}
	ws := WrongSignCoordinates(m, 0.2)
	assert.InDelta(t, ws.XPlus, ws.XMinus, tol)
	assert.InDelta(t, ws.YPlus, ws.YMinus, tol)

	zero := WrongSignCoordinates(m, 0)
	assert.InDelta(t, m.X, zero.XPlus, tol)
	assert.InDelta(t, m.Y, zero.YPlus, tol)
}

func TestGGSZ(t *testing.T) {
	g := 1.2
	c := GGSZ(g, dk)
	assert.InDelta(t, dk.R*dk.R, c.XMinus*c.XMinus+c.YMinus*c.YMinus, tol)
	assert.InDelta(t, dk.R*dk.R, c.XPlus*c.XPlus+c.YPlus*c.YPlus, tol)
	opening := math.Atan2(c.YPlus, c.XPlus) - math.Atan2(c.YMinus, c.XMinus)
	assert.InDelta(t, 0, math.Remainder(opening-2*g, 2*math.Pi), 1e-12)
}

func TestMixingFromTheory_MaximalPhaseStaysFinite(t *testing.T) {
	m := MixingFromTheory(0.005, 0.005, math.Pi/2)
	assert.Equal(t, 1.0, m.QoP)

	m = MixingFromTheory(0.005, 0.005, math.Pi/2-1e-6)
	assert.False(t, math.IsInf(m.QoP, 0) || math.IsNaN(m.QoP))
	assert.GreaterOrEqual(t, m.QoP, 1.0)
	assert.False(t, math.IsNaN(m.Phi))
}
