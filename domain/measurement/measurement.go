// Package measurement holds published experimental results and the
// Gaussian scoring of predictions against them.
package measurement

import (
	"fmt"
	"math"
	"strings"

	"flavorfit/domain/core"
)

// Slot names one independent uncertainty source. Slot order is significant:
// the k-th uncertainty of every measurement in a group shares the k-th
// correlation matrix.
type Slot int

const (
	Stat Slot = iota
	Syst
	Model
	External
)

// MaxSlots is the number of uncertainty sources a measurement can carry.
const MaxSlots = 4

var slotNames = [MaxSlots]string{"stat", "syst", "model", "external"}

func (s Slot) String() string {
	if s < 0 || int(s) >= MaxSlots {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// Valid reports whether s is one of the four known slots.
func (s Slot) Valid() bool {
	return s >= 0 && int(s) < MaxSlots
}

// ParseSlot maps "stat", "syst", "model" or "external" to a Slot.
func ParseSlot(name string) (Slot, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range slotNames {
		if n == name {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown uncertainty slot %q", core.ErrDataEntry, name)
}

// Measurement is a single published central value with up to four
// magnitude-only uncertainty components.
type Measurement struct {
	value         float64
	uncertainties []float64
	sigma         float64
}

// New builds a Measurement. Uncertainties are given in slot order
// (stat, syst, model, external); trailing slots may be omitted and zero
// entries mean the source does not apply.
func New(value float64, uncertainties ...float64) (Measurement, error) {
	if len(uncertainties) > MaxSlots {
		return Measurement{}, fmt.Errorf("%w: got %d", core.ErrTooManySlots, len(uncertainties))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Measurement{}, fmt.Errorf("%w: central value %v", core.ErrDataEntry, value)
	}

	var sum float64
	for k, u := range uncertainties {
		if u < 0 || math.IsNaN(u) || math.IsInf(u, 0) {
			return Measurement{}, fmt.Errorf("%w: %s = %v", core.ErrNegativeUncertainty, Slot(k), u)
		}
		sum += u * u
	}
	if sum == 0 {
		return Measurement{}, core.ErrZeroSigma
	}

	uncs := make([]float64, len(uncertainties))
	copy(uncs, uncertainties)
	return Measurement{
		value:         value,
		uncertainties: uncs,
		sigma:         math.Sqrt(sum),
	}, nil
}

// MustNew is New for literal data tables; it panics on invalid input.
func MustNew(value float64, uncertainties ...float64) Measurement {
	m, err := New(value, uncertainties...)
	if err != nil {
		panic(err)
	}
	return m
}

// Value returns the published central value.
func (m Measurement) Value() float64 { return m.value }

// Sigma returns the quadrature sum of all uncertainty components.
func (m Measurement) Sigma() float64 { return m.sigma }

// NumSlots returns how many uncertainty slots were supplied.
func (m Measurement) NumSlots() int { return len(m.uncertainties) }

// Uncertainty returns the magnitude for slot s, or 0 when the slot was not supplied.
func (m Measurement) Uncertainty(s Slot) float64 {
	if !s.Valid() || int(s) >= len(m.uncertainties) {
		return 0
	}
	return m.uncertainties[s]
}

// Uncertainties returns a copy of the slot-ordered magnitudes.
func (m Measurement) Uncertainties() []float64 {
	out := make([]float64, len(m.uncertainties))
	copy(out, m.uncertainties)
	return out
}

// Dim is always 1; it lets a Measurement stand in wherever a group would.
func (m Measurement) Dim() int { return 1 }

// Chi2 returns the squared pull of predicted.
func (m Measurement) Chi2(predicted float64) float64 {
	z := (predicted - m.value) / m.sigma
	return z * z
}

// LogWeight returns -chi2/2 for a single predicted value.
func (m Measurement) LogWeight(predicted float64) float64 {
	return -0.5 * m.Chi2(predicted)
}

// LogNorm returns the Gaussian normalisation constant -ln(2πσ²)/2.
func (m Measurement) LogNorm() float64 {
	return -0.5 * math.Log(2*math.Pi*m.sigma*m.sigma)
}

func (m Measurement) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%g", m.value)
	for k, u := range m.uncertainties {
		fmt.Fprintf(&b, " ± %g (%s)", u, Slot(k))
	}
	return b.String()
}
