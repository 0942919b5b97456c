package app

import (
	"fmt"
	"math"

	"flavorfit/domain/core"
	"flavorfit/domain/params"
	"flavorfit/domain/prediction"
)

// Observable binds a registered measurement name to the prediction of its
// value(s). Predict writes exactly len(Labels) values into out.
type Observable struct {
	Name    string
	Labels  []string
	Predict func(pt *Point, out []float64)
}

// Dim returns the length of the predicted vector.
func (o Observable) Dim() int { return len(o.Labels) }

// Decay-time acceptance weights of the D-mixing correction.
const (
	alphaLHCb  = 0.9
	alphaBelle = 1.0
)

// cpEvenPure is F+ of the K⁺K⁻ and π⁺π⁻ final states.
const cpEvenPure = 1.0

// B → D h observables.
var bObservables = []Observable{
	{
		Name:   "LHCb_B2DK_GLW_hh",
		Labels: []string{"A_CP+^DK", "R_CP+^DK"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Acp(pt.Gamma, pt.DK, cpEvenPure, m)
			out[1] = prediction.RcpH(pt.Gamma, pt.DK, pt.DK, pt.Kpi, cpEvenPure, m)
		},
	},
	{
		Name:   "LHCb_B2Dh_ADS_Kpi",
		Labels: []string{"R-^DK", "R+^DK", "R-^Dpi", "R+^Dpi"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Rm(pt.Gamma, pt.DK, pt.Kpi, m)
			out[1] = prediction.Rp(pt.Gamma, pt.DK, pt.Kpi, m)
			out[2] = prediction.Rm(pt.Gamma, pt.Dpi, pt.Kpi, m)
			out[3] = prediction.Rp(pt.Gamma, pt.Dpi, pt.Kpi, m)
		},
	},
	{
		Name:   "LHCb_B2Dh_fav_Kpi",
		Labels: []string{"A_fav^DK", "R_K/pi^fav"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Afav(pt.Gamma, pt.DK, pt.Kpi, m)
			out[1] = prediction.RfavAvg(pt.BRDKDpi, pt.Gamma, pt.DK, pt.Dpi, pt.Kpi, m)
		},
	},
	{
		Name:   "LHCb_B2Dh_Rsup_Kpi",
		Labels: []string{"R_K/pi^sup-", "R_K/pi^sup+"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Rsup(pt.BRDKDpi, pt.Gamma, pt.DK, pt.Dpi, pt.Kpi, m, prediction.Minus)
			out[1] = prediction.Rsup(pt.BRDKDpi, pt.Gamma, pt.DK, pt.Dpi, pt.Kpi, m, prediction.Plus)
		},
	},
	{
		Name:   "LHCb_B2DK_ADS_K3pi",
		Labels: []string{"R_ADS^DK(K3pi)", "A_ADS^DK(K3pi)"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Rads(pt.Gamma, pt.DK, pt.K3pi, m)
			out[1] = prediction.Asup(pt.Gamma, pt.DK, pt.K3pi, m)
		},
	},
	{
		Name:   "LHCb_B2DK_GLW_pipipi0",
		Labels: []string{"A_CP^DK(pipipi0)", "R_CP^DK(pipipi0)"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Acp(pt.Gamma, pt.DK, pt.FPiPiPi0, m)
			out[1] = prediction.RcpH(pt.Gamma, pt.DK, pt.DK, pt.Kpi, pt.FPiPiPi0, m)
		},
	},
	{
		Name:   "LHCb_B2DK_GGSZ",
		Labels: []string{"x-^DK", "y-^DK", "x+^DK", "y+^DK"},
		Predict: func(pt *Point, out []float64) {
			c := prediction.GGSZ(pt.Gamma, pt.DK)
			out[0], out[1], out[2], out[3] = c.XMinus, c.YMinus, c.XPlus, c.YPlus
		},
	},
	{
		Name:   "LHCb_B02DKst0_GLW",
		Labels: []string{"A_CP+^DK*0", "R_CP+^DK*0"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaLHCb)
			out[0] = prediction.Acp(pt.Gamma, pt.DKst0, cpEvenPure, m)
			out[1] = prediction.RcpH(pt.Gamma, pt.DKst0, pt.DKst0, pt.Kpi, cpEvenPure, m)
		},
	},
	{
		Name:   "Belle_B2DK_ADS_Kpi",
		Labels: []string{"R_ADS^DK", "A_ADS^DK"},
		Predict: func(pt *Point, out []float64) {
			m := pt.DMixing(alphaBelle)
			out[0] = prediction.Rads(pt.Gamma, pt.DK, pt.Kpi, m)
			out[1] = prediction.Asup(pt.Gamma, pt.DK, pt.Kpi, m)
		},
	},
}

// D-decay hadronic inputs.
var (
	kpiStrongPhase = Observable{
		Name:   "BESIII_Kpi_cos_delta",
		Labels: []string{"cos(delta_Kpi)"},
		Predict: func(pt *Point, out []float64) {
			// charm convention: delta_Kpi = dD_Kpi - pi
			out[0] = -math.Cos(pt.Kpi.Delta)
		},
	}
	k3piHadronic = Observable{
		Name:   "BESIII_K3pi_hadronic",
		Labels: []string{"rD^K3pi", "kD^K3pi", "dD^K3pi"},
		Predict: func(pt *Point, out []float64) {
			out[0], out[1], out[2] = pt.K3pi.R, pt.K3pi.Kappa, pt.K3pi.Delta
		},
	}
	pipipi0Fraction = Observable{
		Name:    "CLEO_F_pipipi0",
		Labels:  []string{"F+^pipipi0"},
		Predict: func(pt *Point, out []float64) { out[0] = pt.FPiPiPi0 },
	}
	kpiRatio = Observable{
		Name:    "HFLAV_RD_Kpi",
		Labels:  []string{"R_D"},
		Predict: func(pt *Point, out []float64) { out[0] = pt.Kpi.R * pt.Kpi.R },
	}
)

// Charm mixing observables.
var (
	mixingAverage = Observable{
		Name:   "HFLAV_D_mixing_xy",
		Labels: []string{"x", "y"},
		Predict: func(pt *Point, out []float64) {
			out[0], out[1] = pt.Mixing.X, pt.Mixing.Y
		},
	}
	wrongSignKpi = Observable{
		Name:   "LHCb_D2Kpi_WS",
		Labels: []string{"R_D", "y'+", "x'^2+", "y'-", "x'^2-"},
		Predict: func(pt *Point, out []float64) {
			ws := prediction.WrongSignCoordinates(pt.Mixing, pt.Kpi.Delta-math.Pi)
			out[0] = pt.Kpi.R * pt.Kpi.R
			out[1] = ws.YPlus
			out[2] = ws.XPlus * ws.XPlus
			out[3] = ws.YMinus
			out[4] = ws.XMinus * ws.XMinus
		},
	}
	yCP = Observable{
		Name:    "HFLAV_yCP",
		Labels:  []string{"y_CP"},
		Predict: func(pt *Point, out []float64) { out[0] = prediction.YCP(pt.Mixing) },
	}
	aGamma = Observable{
		Name:    "LHCb_AGamma",
		Labels:  []string{"A_Gamma"},
		Predict: func(pt *Point, out []float64) { out[0] = prediction.AGamma(pt.Mixing) },
	}
	kspipiMixing = Observable{
		Name:   "Belle_D2KSpipi_mixing",
		Labels: []string{"x", "y", "|q/p|", "phi"},
		Predict: func(pt *Point, out []float64) {
			out[0], out[1], out[2], out[3] = pt.Mixing.X, pt.Mixing.Y, pt.Mixing.QoP, pt.Mixing.Phi
		},
	}
)

// Catalog returns the observables scored in mode, in evaluation order.
func Catalog(mode params.Mode) ([]Observable, error) {
	var obs []Observable
	switch mode {
	case params.ModeGamma:
		obs = append(obs, bObservables...)
		obs = append(obs, kpiStrongPhase, k3piHadronic, pipipi0Fraction, kpiRatio, mixingAverage)
	case params.ModeCharm:
		obs = append(obs, kpiStrongPhase, wrongSignKpi, yCP, aGamma, kspipiMixing)
	case params.ModeCombined:
		obs = append(obs, bObservables...)
		obs = append(obs, kpiStrongPhase, k3piHadronic, pipipi0Fraction)
		obs = append(obs, wrongSignKpi, yCP, aGamma, kspipiMixing)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMode, mode)
	}
	return obs, nil
}
