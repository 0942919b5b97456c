package app

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"flavorfit/domain/core"
	"flavorfit/domain/params"
	"flavorfit/domain/registry"
	"flavorfit/internal"
	"flavorfit/ports"
)

// Normalization selects whether the Gaussian normalisation constants
// enter the log-likelihood. The choice is made once per process and
// applies to every scalar measurement and every group alike.
type Normalization int

const (
	// Unnormalized sums -chi2/2 only.
	Unnormalized Normalization = iota
	// Normalized adds -(N ln 2π + ln|Σ|)/2 for every entry.
	Normalized
)

func (n Normalization) String() string {
	if n == Normalized {
		return "normalized"
	}
	return "unnormalized"
}

// ParseNormalization accepts "normalized" or "unnormalized".
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unnormalized", "chi2":
		return Unnormalized, nil
	case "normalized", "full":
		return Normalized, nil
	}
	return 0, fmt.Errorf("unknown normalization %q", s)
}

// term is an observable already joined with its registry entry.
type term struct {
	obs   Observable
	entry registry.Entry
}

// LikelihoodService sums the Gaussian log-weights of every observable of
// one combination mode. All name lookups and dimension checks happen at
// construction; after that the service holds no mutable state and is safe
// for concurrent use by parallel chains.
type LikelihoodService struct {
	layout   *params.Layout
	reader   pointReader
	dataset  core.RegistryHash
	terms    []term
	constant float64
	norm     Normalization
	maxDim   int
	nObs     int
}

// Compile-time check that the service satisfies the sampler port.
var _ ports.LikelihoodPort = (*LikelihoodService)(nil)

// NewLikelihoodService joins observables with reg. It fails if a name is
// not registered or if an observable's dimension differs from its entry.
func NewLikelihoodService(reg *registry.Registry, layout *params.Layout, observables []Observable, norm Normalization) (*LikelihoodService, error) {
	s := &LikelihoodService{
		layout:  layout,
		reader:  newPointReader(layout),
		dataset: reg.Fingerprint(),
		norm:    norm,
	}

	seen := make(map[string]bool, len(observables))
	for _, obs := range observables {
		if seen[obs.Name] {
			return nil, core.NewDataEntryError(obs.Name, core.ErrDuplicateName)
		}
		seen[obs.Name] = true

		entry, err := reg.Lookup(obs.Name)
		if err != nil {
			return nil, err
		}
		if entry.Dim() != obs.Dim() {
			return nil, core.NewDimensionError(obs.Name, entry.Dim(), obs.Dim())
		}
		if obs.Predict == nil {
			return nil, fmt.Errorf("observable %q has no prediction", obs.Name)
		}

		s.terms = append(s.terms, term{obs: obs, entry: entry})
		if norm == Normalized {
			s.constant += entry.LogNorm()
		}
		if obs.Dim() > s.maxDim {
			s.maxDim = obs.Dim()
		}
		s.nObs += obs.Dim()
	}

	internal.DefaultLogger.Debug("likelihood for mode %s: %d measurements, %d observables, %d parameters, %s",
		layout.Mode(), len(s.terms), s.nObs, layout.Len(), norm)
	return s, nil
}

// NewLikelihoodServiceForMode builds the layout and catalog of mode.
func NewLikelihoodServiceForMode(reg *registry.Registry, mode params.Mode, norm Normalization) (*LikelihoodService, error) {
	layout, err := params.NewLayout(mode)
	if err != nil {
		return nil, err
	}
	observables, err := Catalog(mode)
	if err != nil {
		return nil, err
	}
	return NewLikelihoodService(reg, layout, observables, norm)
}

// Layout returns the parameter layout the service reads.
func (s *LikelihoodService) Layout() *params.Layout { return s.layout }

// Dataset returns the fingerprint of the registry the service scores against.
func (s *LikelihoodService) Dataset() core.RegistryHash { return s.dataset }

// Normalization returns the chosen convention.
func (s *LikelihoodService) Normalization() Normalization { return s.norm }

// NumMeasurements returns the number of registry entries scored.
func (s *LikelihoodService) NumMeasurements() int { return len(s.terms) }

// NumObservables returns the total length of all predicted vectors.
func (s *LikelihoodService) NumObservables() int { return s.nObs }

// Names returns the scored measurement names in evaluation order.
func (s *LikelihoodService) Names() []string {
	names := make([]string, len(s.terms))
	for i, t := range s.terms {
		names[i] = t.obs.Name
	}
	return names
}

func (s *LikelihoodService) checkParams(p []float64) error {
	if len(p) != s.layout.Len() {
		return core.NewDimensionError(string(s.layout.Mode())+" parameters", s.layout.Len(), len(p))
	}
	return nil
}

// visit decodes p and calls fn with every term's prediction, in
// registration order. pred is only valid during the call.
func (s *LikelihoodService) visit(p []float64, fn func(pt *Point, t *term, pred []float64)) {
	var pt Point
	s.reader.read(p, &pt)

	var stack [16]float64
	buf := stack[:]
	if s.maxDim > len(stack) {
		buf = make([]float64, s.maxDim)
	}
	for i := range s.terms {
		t := &s.terms[i]
		pred := buf[:t.obs.Dim()]
		t.obs.Predict(&pt, pred)
		fn(&pt, t, pred)
	}
}

// Evaluate returns the total log-likelihood of p. Contributions are summed
// in a fixed order, so equal inputs give bit-identical results.
func (s *LikelihoodService) Evaluate(p []float64) (float64, error) {
	if err := s.checkParams(p); err != nil {
		return 0, err
	}
	total := s.constant
	s.visit(p, func(_ *Point, t *term, pred []float64) {
		total += t.entry.LogWeight(pred)
	})
	return total, nil
}

// LogLikelihood is Evaluate for the host sampler. A malformed vector is a
// programming defect and panics rather than return a wrong weight.
func (s *LikelihoodService) LogLikelihood(p []float64) float64 {
	v, err := s.Evaluate(p)
	if err != nil {
		panic(err)
	}
	return v
}

// EvaluateInto is Evaluate that also publishes every predicted observable
// as "<measurement>/<label>" and the derived mixing parameters into sink.
func (s *LikelihoodService) EvaluateInto(p []float64, sink ports.SnapshotPort) (float64, error) {
	if err := s.checkParams(p); err != nil {
		return 0, err
	}
	total := s.constant
	first := true
	s.visit(p, func(pt *Point, t *term, pred []float64) {
		if first {
			sink.Publish("derived/x", pt.Mixing.X)
			sink.Publish("derived/y", pt.Mixing.Y)
			sink.Publish("derived/qop", pt.Mixing.QoP)
			sink.Publish("derived/phi", pt.Mixing.Phi)
			first = false
		}
		for i, label := range t.obs.Labels {
			sink.Publish(t.obs.Name+"/"+label, pred[i])
		}
		total += t.entry.LogWeight(pred)
	})
	sink.Publish("logL", total)
	return total, nil
}

// Contribution is one measurement's share of the log-likelihood.
type Contribution struct {
	Name      string    `json:"name"`
	Labels    []string  `json:"labels"`
	Predicted []float64 `json:"predicted"`
	Measured  []float64 `json:"measured"`
	Sigmas    []float64 `json:"sigmas"`
	LogWeight float64   `json:"log_weight"`
	LogNorm   float64   `json:"log_norm,omitempty"`
}

// Chi2 returns -2 × LogWeight.
func (c Contribution) Chi2() float64 { return -2 * c.LogWeight }

// Pulls returns (predicted - measured) / sigma per component, ignoring
// correlations.
func (c Contribution) Pulls() []float64 {
	out := make([]float64, len(c.Predicted))
	floats.SubTo(out, c.Predicted, c.Measured)
	floats.Div(out, c.Sigmas)
	return out
}

// Breakdown returns the per-measurement contributions at p, in evaluation order.
func (s *LikelihoodService) Breakdown(p []float64) ([]Contribution, error) {
	if err := s.checkParams(p); err != nil {
		return nil, err
	}
	out := make([]Contribution, 0, len(s.terms))
	s.visit(p, func(_ *Point, t *term, pred []float64) {
		c := Contribution{
			Name:      t.obs.Name,
			Labels:    t.obs.Labels,
			Predicted: append([]float64(nil), pred...),
			Measured:  t.entry.Centrals(),
			Sigmas:    t.entry.Sigmas(),
			LogWeight: t.entry.LogWeight(pred),
		}
		if s.norm == Normalized {
			c.LogNorm = t.entry.LogNorm()
		}
		out = append(out, c)
	})
	return out, nil
}

// Snapshot is a name → value map that collects published observables.
type Snapshot map[string]float64

// Publish implements ports.SnapshotPort.
func (s Snapshot) Publish(name string, value float64) { s[name] = value }
