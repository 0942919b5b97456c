package app

import (
	"flavorfit/domain/params"
	"flavorfit/domain/prediction"
)

// Point is the physics content of one parameter vector, decoded once per
// evaluation and shared by every observable.
type Point struct {
	Gamma float64

	DK, Dpi, DKst0 prediction.BDecay
	Kpi, K3pi      prediction.DDecay

	FPiPiPi0 float64
	BRDKDpi  float64

	X12, Y12, Phi12 float64
	Mixing          prediction.MixingParams
}

// DMixing returns the first-order mixing input with acceptance weight alpha.
func (pt *Point) DMixing(alpha float64) prediction.DMixing {
	return prediction.DMixing{Alpha: alpha, X: pt.X12, Y: pt.Y12}
}

// pointReader holds the vector positions of every Point field; -1 marks a
// parameter the layout does not carry.
type pointReader struct {
	gamma                     int
	rBDK, dBDK                int
	rBDpi, dBDpi              int
	rBDKst0, dBDKst0, kBDKst0 int
	rDKpi, dDKpi              int
	rDK3pi, dDK3pi, kDK3pi    int
	fPiPiPi0, brDKDpi         int
	x12, y12, phi12           int
}

func newPointReader(l *params.Layout) pointReader {
	idx := func(name string) int {
		i, err := l.Index(name)
		if err != nil {
			return -1
		}
		return i
	}
	return pointReader{
		gamma:    idx(params.Gamma),
		rBDK:     idx(params.RBDK),
		dBDK:     idx(params.DeltaBDK),
		rBDpi:    idx(params.RBDpi),
		dBDpi:    idx(params.DeltaBDpi),
		rBDKst0:  idx(params.RBDKst0),
		dBDKst0:  idx(params.DeltaBDKst0),
		kBDKst0:  idx(params.KappaBDKst0),
		rDKpi:    idx(params.RDKpi),
		dDKpi:    idx(params.DeltaDKpi),
		rDK3pi:   idx(params.RDK3pi),
		dDK3pi:   idx(params.DeltaDK3pi),
		kDK3pi:   idx(params.KappaDK3pi),
		fPiPiPi0: idx(params.FPiPiPi0),
		brDKDpi:  idx(params.BRDKDpi),
		x12:      idx(params.X12),
		y12:      idx(params.Y12),
		phi12:    idx(params.Phi12),
	}
}

func at(p []float64, i int, fallback float64) float64 {
	if i < 0 {
		return fallback
	}
	return p[i]
}

// read decodes p. Coherence factors of two-body modes are 1 and absent
// coherence parameters default to 1 as well.
func (r *pointReader) read(p []float64, pt *Point) {
	pt.Gamma = at(p, r.gamma, 0)
	pt.DK = prediction.BDecay{R: at(p, r.rBDK, 0), Delta: at(p, r.dBDK, 0), Kappa: 1}
	pt.Dpi = prediction.BDecay{R: at(p, r.rBDpi, 0), Delta: at(p, r.dBDpi, 0), Kappa: 1}
	pt.DKst0 = prediction.BDecay{R: at(p, r.rBDKst0, 0), Delta: at(p, r.dBDKst0, 0), Kappa: at(p, r.kBDKst0, 1)}
	pt.Kpi = prediction.DDecay{R: at(p, r.rDKpi, 0), Delta: at(p, r.dDKpi, 0), Kappa: 1}
	pt.K3pi = prediction.DDecay{R: at(p, r.rDK3pi, 0), Delta: at(p, r.dDK3pi, 0), Kappa: at(p, r.kDK3pi, 1)}
	pt.FPiPiPi0 = at(p, r.fPiPiPi0, 1)
	pt.BRDKDpi = at(p, r.brDKDpi, 0)
	pt.X12 = at(p, r.x12, 0)
	pt.Y12 = at(p, r.y12, 0)
	pt.Phi12 = at(p, r.phi12, 0)
	pt.Mixing = prediction.MixingFromTheory(pt.X12, pt.Y12, pt.Phi12)
}
