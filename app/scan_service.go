package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"flavorfit/domain/core"
	"flavorfit/domain/run"
	"flavorfit/internal"
	"flavorfit/internal/errors"
	"flavorfit/internal/profiling"
)

// deltaChi2OneSigma is the rise of -2 ln L that bounds a 68.3% interval
// for one parameter.
const deltaChi2OneSigma = 1.0

var scanLog = internal.DefaultLogger.With("ScanService")

// ScanService evaluates the likelihood along a grid in one parameter with
// all others held fixed. Points are evaluated concurrently; results are
// always reported in grid order.
type ScanService struct {
	likelihood *LikelihoodService
	analyzer   *profiling.DistributionAnalyzer
	workers    int
}

// ScanRequest defines one 1-D scan.
type ScanRequest struct {
	Parameter string
	Min, Max  float64
	Points    int
	Base      []float64  // other parameters; nil selects the layout defaults
	RunID     core.RunID // optional, generated if empty
}

// ScanPoint is one grid value.
type ScanPoint struct {
	Value float64 `json:"value"`
	LogL  float64 `json:"log_l"`
	// DeltaChi2 is -2 (ln L - ln L_max) over the grid.
	DeltaChi2 float64 `json:"delta_chi2"`
}

// Interval is the region with DeltaChi2 <= 1 around the best point,
// linearly interpolated between grid points. A side that reaches the
// grid edge is reported open.
type Interval struct {
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	LowClosed  bool    `json:"low_closed"`
	HighClosed bool    `json:"high_closed"`
}

// CurveSummary describes the log-likelihood values over the grid.
type CurveSummary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// ScanResult contains the complete output of a scan
type ScanResult struct {
	RunID     core.RunID            `json:"run_id"`
	Mode      string                `json:"mode"`
	Manifest  *run.Manifest         `json:"manifest"`
	Parameter string                `json:"parameter"`
	Points    []ScanPoint           `json:"points"`
	Best      ScanPoint             `json:"best"`
	Interval  Interval              `json:"interval"`
	Curve     CurveSummary          `json:"curve"`
	Fit       profiling.FitQuality  `json:"fit"`
	Pulls     profiling.PullSummary `json:"pulls"`
	RuntimeMs int64                 `json:"runtime_ms"`
}

// NewScanService creates a scan service running at most workers
// evaluations at a time.
func NewScanService(likelihood *LikelihoodService, workers int) *ScanService {
	if workers < 1 {
		workers = 1
	}
	return &ScanService{
		likelihood: likelihood,
		analyzer:   profiling.NewDistributionAnalyzer(),
		workers:    workers,
	}
}

// Run executes the scan. It stops early when ctx is cancelled.
func (s *ScanService) Run(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	startTime := time.Now()
	layout := s.likelihood.Layout()

	idx, err := layout.Index(req.Parameter)
	if err != nil {
		return nil, errors.Classify(err)
	}
	if req.Points < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("scan needs at least 2 points, got %d", req.Points))
	}
	if !(req.Max > req.Min) {
		return nil, errors.InvalidInput(fmt.Sprintf("scan range [%g, %g] is empty", req.Min, req.Max))
	}

	base := req.Base
	if base == nil {
		base = layout.Defaults()
	}
	if len(base) != layout.Len() {
		return nil, errors.Classify(core.NewDimensionError("scan base point", layout.Len(), len(base)))
	}

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	manifest := run.NewManifest(runID, string(layout.Mode()), s.likelihood.Normalization().String(),
		s.likelihood.Dataset(), run.Grid{Parameter: req.Parameter, Min: req.Min, Max: req.Max, Points: req.Points}, base)
	if err := manifest.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scan manifest")
	}
	scanLog.Info("run %s: %s in [%g, %g], %d points, %d workers, fingerprint %s",
		runID, req.Parameter, req.Min, req.Max, req.Points, s.workers, manifest.Fingerprint.Fingerprint.Short())

	points := make([]ScanPoint, req.Points)
	step := (req.Max - req.Min) / float64(req.Points-1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range points {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := make([]float64, len(base))
			copy(p, base)
			p[idx] = req.Min + float64(i)*step
			if i == req.Points-1 {
				p[idx] = req.Max
			}

			logL, err := s.likelihood.Evaluate(p)
			if err != nil {
				return err
			}
			points[i] = ScanPoint{Value: p[idx], LogL: logL}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(errors.Classify(err), "scan %s", runID)
	}

	best := 0
	for i, pt := range points {
		if pt.LogL > points[best].LogL {
			best = i
		}
	}
	for i := range points {
		points[i].DeltaChi2 = -2 * (points[i].LogL - points[best].LogL)
	}

	result := &ScanResult{
		RunID:     runID,
		Mode:      string(layout.Mode()),
		Manifest:  manifest,
		Parameter: req.Parameter,
		Points:    points,
		Best:      points[best],
		Interval:  findInterval(points, best, deltaChi2OneSigma),
	}

	if result.Curve, err = summarizeCurve(points); err != nil {
		return nil, errors.Wrap(err, "summarize scan curve")
	}

	bestParams := make([]float64, len(base))
	copy(bestParams, base)
	bestParams[idx] = points[best].Value
	fit, pulls, err := s.quality(bestParams, 1)
	if err != nil {
		return nil, err
	}
	result.Fit = fit
	result.Pulls = pulls
	result.RuntimeMs = time.Since(startTime).Milliseconds()

	scanLog.Info("run %s: best %s = %g, chi2/ndf = %.2f/%d",
		runID, req.Parameter, result.Best.Value, fit.Chi2, fit.NDF)
	return result, nil
}

// Quality returns the goodness of fit and pull summary at p with no
// parameters fitted.
func (s *ScanService) Quality(p []float64) (profiling.FitQuality, profiling.PullSummary, error) {
	return s.quality(p, 0)
}

func (s *ScanService) quality(p []float64, fitted int) (profiling.FitQuality, profiling.PullSummary, error) {
	contributions, err := s.likelihood.Breakdown(p)
	if err != nil {
		return profiling.FitQuality{}, profiling.PullSummary{}, errors.Classify(err)
	}

	var chi2 float64
	var pulls []float64
	for _, c := range contributions {
		chi2 += c.Chi2()
		pulls = append(pulls, c.Pulls()...)
	}

	fit := s.analyzer.GoodnessOfFit(chi2, s.likelihood.NumObservables()-fitted)
	summary, err := s.analyzer.AnalyzePulls(pulls)
	if err != nil {
		return fit, profiling.PullSummary{}, errors.Wrap(err, "analyze pulls")
	}
	return fit, summary, nil
}

func summarizeCurve(points []ScanPoint) (CurveSummary, error) {
	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.LogL
	}

	var c CurveSummary
	var err error
	if c.Min, err = stats.Min(values); err != nil {
		return c, err
	}
	if c.Max, err = stats.Max(values); err != nil {
		return c, err
	}
	if c.Mean, err = stats.Mean(values); err != nil {
		return c, err
	}
	if c.Median, err = stats.Median(values); err != nil {
		return c, err
	}
	if c.StdDev, err = stats.StandardDeviation(values); err != nil {
		return c, err
	}
	return c, nil
}

// findInterval walks outwards from best until DeltaChi2 exceeds level.
func findInterval(points []ScanPoint, best int, level float64) Interval {
	iv := Interval{Low: points[0].Value, High: points[len(points)-1].Value}

	for i := best; i > 0; i-- {
		if points[i-1].DeltaChi2 > level {
			iv.Low = crossing(points[i-1], points[i], level)
			iv.LowClosed = true
			break
		}
	}
	for i := best; i < len(points)-1; i++ {
		if points[i+1].DeltaChi2 > level {
			iv.High = crossing(points[i], points[i+1], level)
			iv.HighClosed = true
			break
		}
	}
	return iv
}

// crossing interpolates the value where DeltaChi2 equals level between a and b.
func crossing(a, b ScanPoint, level float64) float64 {
	d := b.DeltaChi2 - a.DeltaChi2
	if d == 0 || math.IsInf(d, 0) || math.IsNaN(d) {
		return (a.Value + b.Value) / 2
	}
	return a.Value + (level-a.DeltaChi2)*(b.Value-a.Value)/d
}
