package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorfit/domain/core"
	"flavorfit/domain/params"
	"flavorfit/internal/errors"
)

func newTruthScan(t *testing.T, mode params.Mode, workers int) (*ScanService, []float64) {
	t.Helper()
	p := defaults(t, mode)
	svc, err := NewLikelihoodServiceForMode(truthRegistry(t, mode, p), mode, Unnormalized)
	require.NoError(t, err)
	return NewScanService(svc, workers), p
}

func TestScan_FindsTruth(t *testing.T) {
	scan, p := newTruthScan(t, params.ModeGamma, 4)
	truth := p[scan.likelihood.Layout().MustIndex(params.Gamma)]

	res, err := scan.Run(context.Background(), ScanRequest{
		Parameter: params.Gamma,
		Min:       truth - 0.3,
		Max:       truth + 0.3,
		Points:    61,
	})
	require.NoError(t, err)

	require.Len(t, res.Points, 61)
	for i := 1; i < len(res.Points); i++ {
		assert.Greater(t, res.Points[i].Value, res.Points[i-1].Value)
	}
	assert.Equal(t, truth+0.3, res.Points[60].Value)

	assert.InDelta(t, truth, res.Best.Value, 1e-9)
	assert.Zero(t, res.Best.DeltaChi2)
	assert.LessOrEqual(t, res.Interval.Low, truth)
	assert.GreaterOrEqual(t, res.Interval.High, truth)
	assert.Equal(t, res.Best.LogL, res.Curve.Max)

	assert.InDelta(t, 0, res.Fit.Chi2, 1e-9)
	assert.InDelta(t, 1, res.Fit.PValue, 1e-9)
	assert.Equal(t, scan.likelihood.NumObservables()-1, res.Fit.NDF)
	assert.Equal(t, scan.likelihood.NumObservables(), res.Pulls.N)
	assert.Zero(t, res.Pulls.Outliers)

	assert.False(t, res.RunID == "")
	assert.Equal(t, "gamma", res.Mode)
}

func TestScan_WorkerCountDoesNotChangeResult(t *testing.T) {
	one, _ := newTruthScan(t, params.ModeCharm, 1)
	many, _ := newTruthScan(t, params.ModeCharm, 8)
	req := ScanRequest{Parameter: params.X12, Min: 0, Max: 0.01, Points: 41, RunID: core.NewRunID()}

	a, err := one.Run(context.Background(), req)
	require.NoError(t, err)
	b, err := many.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Points, b.Points)
	assert.Equal(t, req.RunID, a.RunID)
	require.NotNil(t, a.Manifest)
	assert.Equal(t, a.Manifest.Fingerprint.Fingerprint, b.Manifest.Fingerprint.Fingerprint)
	assert.Equal(t, one.likelihood.Dataset(), a.Manifest.RegistryHash)
}

func TestScan_InvalidRequests(t *testing.T) {
	scan, _ := newTruthScan(t, params.ModeCharm, 2)
	ctx := context.Background()

	_, err := scan.Run(ctx, ScanRequest{Parameter: "zeta", Min: 0, Max: 1, Points: 10})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrUnknownParameter)

	_, err = scan.Run(ctx, ScanRequest{Parameter: params.X12, Min: 0, Max: 1, Points: 1})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = scan.Run(ctx, ScanRequest{Parameter: params.X12, Min: 1, Max: 1, Points: 10})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = scan.Run(ctx, ScanRequest{Parameter: params.X12, Min: 0, Max: 1, Points: 10, Base: []float64{1}})
	assert.Equal(t, errors.CodeDimensionMismatch, errors.GetCode(err))
}

func TestScan_Cancelled(t *testing.T) {
	scan, _ := newTruthScan(t, params.ModeCharm, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scan.Run(ctx, ScanRequest{Parameter: params.X12, Min: 0, Max: 0.01, Points: 20})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindInterval_Parabola(t *testing.T) {
	points := make([]ScanPoint, 41)
	for i := range points {
		x := -2 + 0.1*float64(i)
		points[i] = ScanPoint{Value: x, DeltaChi2: (x / 0.5) * (x / 0.5)}
	}

	iv := findInterval(points, 20, 1)
	assert.True(t, iv.LowClosed)
	assert.True(t, iv.HighClosed)
	assert.InDelta(t, -0.5, iv.Low, 1e-9)
	assert.InDelta(t, 0.5, iv.High, 1e-9)
}

func TestFindInterval_OpenAtEdge(t *testing.T) {
	points := []ScanPoint{
		{Value: 0, DeltaChi2: 0},
		{Value: 1, DeltaChi2: 0.5},
		{Value: 2, DeltaChi2: 2.5},
	}

	iv := findInterval(points, 0, 1)
	assert.False(t, iv.LowClosed)
	assert.Equal(t, 0.0, iv.Low)
	assert.True(t, iv.HighClosed)
	assert.InDelta(t, 1.25, iv.High, 1e-12)
}

func TestQuality_AtTruth(t *testing.T) {
	scan, p := newTruthScan(t, params.ModeCombined, 1)

	fit, pulls, err := scan.Quality(p)
	require.NoError(t, err)
	assert.Equal(t, scan.likelihood.NumObservables(), fit.NDF)
	assert.InDelta(t, 0, pulls.Mean, 1e-12)
}
