// Package params fixes the position of every physics parameter in the
// vector handed over by the sampler, per combination mode.
package params

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"flavorfit/domain/core"
)

// Mode selects which measurements are combined and hence which
// parameters the vector carries.
type Mode string

const (
	ModeGamma    Mode = "gamma"    // B → D h observables with D-decay and averaged D-mixing inputs
	ModeCharm    Mode = "charm"    // D-mixing observables only
	ModeCombined Mode = "combined" // B and charm observables fitted jointly
)

// Modes lists every supported mode.
func Modes() []Mode { return []Mode{ModeGamma, ModeCharm, ModeCombined} }

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownMode, s)
}

// Parameter names.
const (
	Gamma = "g"

	RBDK        = "rB_DK"
	DeltaBDK    = "dB_DK"
	RBDpi       = "rB_Dpi"
	DeltaBDpi   = "dB_Dpi"
	RBDKst0     = "rB_DKst0"
	DeltaBDKst0 = "dB_DKst0"
	KappaBDKst0 = "kB_DKst0"

	RDKpi      = "rD_Kpi"
	DeltaDKpi  = "dD_Kpi"
	RDK3pi     = "rD_K3pi"
	DeltaDK3pi = "dD_K3pi"
	KappaDK3pi = "kD_K3pi"
	FPiPiPi0   = "F_pipipi0"

	BRDKDpi = "BR_DK_Dpi"

	X12   = "x12"
	Y12   = "y12"
	Phi12 = "phi12"
)

// Spec describes one parameter: its physical range and a central
// starting value used by scans and the CLI.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Angle   bool
}

// phi12Limit keeps φ12 off ±π/2, where x12 = y12 sends |q/p| to infinity.
const phi12Limit = math.Pi/2 - 1e-6

var catalog = map[string]Spec{
	Gamma: {Name: Gamma, Min: 0, Max: math.Pi, Default: 1.15, Angle: true},

	RBDK:        {Name: RBDK, Min: 0, Max: 0.5, Default: 0.0985},
	DeltaBDK:    {Name: DeltaBDK, Min: 0, Max: 2 * math.Pi, Default: 2.24, Angle: true},
	RBDpi:       {Name: RBDpi, Min: 0, Max: 0.1, Default: 0.0049},
	DeltaBDpi:   {Name: DeltaBDpi, Min: 0, Max: 2 * math.Pi, Default: 5.14, Angle: true},
	RBDKst0:     {Name: RBDKst0, Min: 0, Max: 1, Default: 0.25},
	DeltaBDKst0: {Name: DeltaBDKst0, Min: 0, Max: 2 * math.Pi, Default: 3.35, Angle: true},
	KappaBDKst0: {Name: KappaBDKst0, Min: 0, Max: 1, Default: 0.95},

	RDKpi:      {Name: RDKpi, Min: 0, Max: 0.1, Default: 0.0586},
	DeltaDKpi:  {Name: DeltaDKpi, Min: 0, Max: 2 * math.Pi, Default: 3.33, Angle: true},
	RDK3pi:     {Name: RDK3pi, Min: 0, Max: 0.1, Default: 0.0549},
	DeltaDK3pi: {Name: DeltaDK3pi, Min: 0, Max: 2 * math.Pi, Default: 2.96, Angle: true},
	KappaDK3pi: {Name: KappaDK3pi, Min: 0, Max: 1, Default: 0.44},
	FPiPiPi0:   {Name: FPiPiPi0, Min: 0, Max: 1, Default: 0.973},

	BRDKDpi: {Name: BRDKDpi, Min: 0, Max: 0.2, Default: 0.0775},

	X12:   {Name: X12, Min: 0, Max: 0.03, Default: 0.0041},
	Y12:   {Name: Y12, Min: -0.03, Max: 0.03, Default: 0.0062},
	Phi12: {Name: Phi12, Min: -phi12Limit, Max: phi12Limit, Default: 0.003, Angle: true},
}

var (
	charmNames = []string{X12, Y12, Phi12, RDKpi, DeltaDKpi}
	gammaNames = []string{
		Gamma,
		RBDK, DeltaBDK, RBDpi, DeltaBDpi,
		RBDKst0, DeltaBDKst0, KappaBDKst0,
		RDKpi, DeltaDKpi, RDK3pi, DeltaDK3pi, KappaDK3pi, FPiPiPi0,
		BRDKDpi,
		X12, Y12, Phi12,
	}
)

// Layout maps parameter names to fixed positions in the vector.
type Layout struct {
	mode  Mode
	specs []Spec
	index map[string]int
}

// NewLayout returns the layout of mode.
func NewLayout(mode Mode) (*Layout, error) {
	var names []string
	switch mode {
	case ModeCharm:
		names = charmNames
	case ModeGamma, ModeCombined:
		names = gammaNames
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownMode, mode)
	}
	return newLayout(mode, names), nil
}

func newLayout(mode Mode, names []string) *Layout {
	l := &Layout{
		mode:  mode,
		specs: make([]Spec, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, n := range names {
		l.specs[i] = catalog[n]
		l.index[n] = i
	}
	return l
}

// Mode returns the combination mode of the layout.
func (l *Layout) Mode() Mode { return l.mode }

// Len returns the length of the parameter vector.
func (l *Layout) Len() int { return len(l.specs) }

// Names returns parameter names in vector order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.specs))
	for i, s := range l.specs {
		names[i] = s.Name
	}
	return names
}

// Specs returns parameter descriptions in vector order.
func (l *Layout) Specs() []Spec {
	out := make([]Spec, len(l.specs))
	copy(out, l.specs)
	return out
}

// Index returns the position of name.
func (l *Layout) Index(name string) (int, error) {
	i, ok := l.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s layout", core.ErrUnknownParameter, name, l.mode)
	}
	return i, nil
}

// MustIndex is Index for names the caller knows are present.
func (l *Layout) MustIndex(name string) int {
	i, err := l.Index(name)
	if err != nil {
		panic(err)
	}
	return i
}

// Has reports whether the layout carries name.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Defaults returns a fresh vector filled with default values.
func (l *Layout) Defaults() []float64 {
	p := make([]float64, len(l.specs))
	for i, s := range l.specs {
		p[i] = s.Default
	}
	return p
}

// Validate checks the vector length and that every value lies within its
// physical range. All out-of-range parameters are reported together.
func (l *Layout) Validate(p []float64) error {
	if len(p) != len(l.specs) {
		return core.NewDimensionError(string(l.mode)+" parameters", len(l.specs), len(p))
	}
	var bad []string
	for i, s := range l.specs {
		v := p[i]
		if math.IsNaN(v) || v < s.Min || v > s.Max {
			bad = append(bad, fmt.Sprintf("%s=%g not in [%g, %g]", s.Name, v, s.Min, s.Max))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("parameters out of range: %s", strings.Join(bad, "; "))
	}
	return nil
}

// Set parses name=value assignments onto p. Angles accept a "deg" suffix.
func (l *Layout) Set(p []float64, assignments []string) error {
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q, want name=value", a)
		}
		i, err := l.Index(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		v, err := ParseValue(raw)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
		p[i] = v
	}
	return nil
}

// ParseValue reads a number, converting from degrees when it carries a
// "deg" suffix.
func ParseValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	deg := strings.HasSuffix(raw, "deg")
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "deg"))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if deg {
		v *= math.Pi / 180
	}
	return v, nil
}
