// Package profiling summarises how well a parameter point describes the
// measurements: the shape of the pull distribution and the χ² p-value.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// outlierPull is the |pull| above which an observable counts as an outlier.
const outlierPull = 3.0

// PullSummary describes the distribution of (prediction - measurement)/σ
// over all observables. For a good fit it is close to a unit Gaussian.
type PullSummary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
	Outliers int     `json:"outliers"`

	// NormalityP is the Jarque-Bera p-value against a Gaussian shape.
	NormalityP float64 `json:"normality_p"`
}

// FitQuality is the χ² goodness of fit at one point.
type FitQuality struct {
	Chi2   float64 `json:"chi2"`
	NDF    int     `json:"ndf"`
	PValue float64 `json:"p_value"`
}

// DistributionAnalyzer handles pull distribution analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzePulls computes summary statistics of pulls. It fails on empty input.
func (da *DistributionAnalyzer) AnalyzePulls(pulls []float64) (PullSummary, error) {
	summary := PullSummary{N: len(pulls)}

	mean, err := stats.Mean(pulls)
	if err != nil {
		return summary, err
	}
	stdDev, err := stats.StandardDeviation(pulls)
	if err != nil {
		return summary, err
	}
	min, err := stats.Min(pulls)
	if err != nil {
		return summary, err
	}
	max, err := stats.Max(pulls)
	if err != nil {
		return summary, err
	}
	median, err := stats.Median(pulls)
	if err != nil {
		return summary, err
	}
	q25, err := stats.Percentile(pulls, 25)
	if err != nil {
		return summary, err
	}
	q75, err := stats.Percentile(pulls, 75)
	if err != nil {
		return summary, err
	}

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75
	summary.Skewness = calculateSkewness(pulls, mean, stdDev)
	summary.Kurtosis = calculateKurtosis(pulls, mean, stdDev)
	summary.NormalityP = jarqueBera(len(pulls), summary.Skewness, summary.Kurtosis)

	for _, p := range pulls {
		if math.Abs(p) > outlierPull {
			summary.Outliers++
		}
	}
	return summary, nil
}

// GoodnessOfFit returns the upper-tail χ² probability for ndf degrees of
// freedom. PValue is NaN when ndf < 1.
func (da *DistributionAnalyzer) GoodnessOfFit(chi2 float64, ndf int) FitQuality {
	q := FitQuality{Chi2: chi2, NDF: ndf, PValue: math.NaN()}
	if ndf < 1 {
		return q
	}
	q.PValue = distuv.ChiSquared{K: float64(ndf)}.Survival(chi2)
	return q
}

// calculateSkewness computes the sample skewness; zero for fewer than three
// points or a constant sample.
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n
}

// calculateKurtosis computes the sample kurtosis (3 for a Gaussian).
func calculateKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3
	}

	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d * d
	}
	return sum / n
}

// jarqueBera tests skewness and excess kurtosis jointly; the statistic is
// χ²-distributed with two degrees of freedom for Gaussian samples.
func jarqueBera(n int, skewness, kurtosis float64) float64 {
	if n < 3 {
		return 1
	}
	excess := kurtosis - 3
	jb := float64(n) / 6 * (skewness*skewness + excess*excess/4)
	return distuv.ChiSquared{K: 2}.Survival(jb)
}
