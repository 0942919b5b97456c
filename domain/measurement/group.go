package measurement

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"flavorfit/domain/core"
)

// stackDim bounds the groups whose residuals are solved in a stack buffer.
const stackDim = 16

// Group is a set of jointly published measurements whose uncertainty
// sources each carry their own correlation matrix. The combined covariance
// is factorised once at construction; LogWeight only performs a triangular
// solve against the cached factor.
type Group struct {
	name     string
	centrals []float64
	slots    []Slot

	cov    *mat.SymDense
	lower  []float64 // Cholesky factor L (Σ = L Lᵀ), row-major, upper part zero
	logDet float64
}

// NewGroup combines measurements into one multivariate Gaussian.
//
// For every slot k that is present (given a correlation matrix, or carrying
// a non-zero magnitude in any measurement) the covariance receives
// Σ_ij += s_i^k s_j^k ρ^k_ij. Slots with magnitudes but no matrix are taken
// as uncorrelated. A measurement that lacks slot k contributes 0 for it.
func NewGroup(name string, measurements []Measurement, correlations []SlotCorrelation) (*Group, error) {
	n := len(measurements)
	if n == 0 {
		return nil, core.NewDataEntryError(name, core.ErrEmptyGroup)
	}

	var bySlot [MaxSlots]*Correlation
	for _, sc := range correlations {
		if !sc.Slot.Valid() {
			return nil, core.NewDataEntryError(name, fmt.Errorf("%w: %s", core.ErrInvalidCorrelation, sc.Slot))
		}
		if sc.Correlation == nil {
			return nil, core.NewDataEntryError(name, fmt.Errorf("%w: nil matrix for %s", core.ErrInvalidCorrelation, sc.Slot))
		}
		if bySlot[sc.Slot] != nil {
			return nil, core.NewDataEntryError(name, fmt.Errorf("%w: %s given twice", core.ErrInvalidCorrelation, sc.Slot))
		}
		if d := sc.Correlation.Dim(); d != n {
			return nil, core.NewDataEntryError(name, fmt.Errorf("%w: %s correlation is %dx%d for %d measurements",
				core.ErrDimensionMismatch, sc.Slot, d, d, n))
		}
		bySlot[sc.Slot] = sc.Correlation
	}

	centrals := make([]float64, n)
	for i, m := range measurements {
		centrals[i] = m.Value()
	}

	cov := mat.NewSymDense(n, nil)
	var slots []Slot
	s := make([]float64, n)
	for k := Slot(0); int(k) < MaxSlots; k++ {
		present := false
		for i, m := range measurements {
			s[i] = m.Uncertainty(k)
			if s[i] != 0 {
				present = true
			}
		}
		rho := bySlot[k]
		if !present && rho == nil {
			continue
		}
		slots = append(slots, k)
		if !present {
			continue
		}
		if rho == nil {
			rho = Identity(n)
		}
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				cov.SetSym(i, j, cov.At(i, j)+s[i]*s[j]*rho.At(i, j))
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, core.NewDataEntryError(name, core.ErrSingularCovariance)
	}
	logDet := chol.LogDet()
	if math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return nil, core.NewDataEntryError(name, core.ErrSingularCovariance)
	}

	// Σ = UᵀU, so L = Uᵀ.
	u := chol.RawU()
	lower := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			lower[i*n+j] = u.At(j, i)
		}
	}

	return &Group{
		name:     name,
		centrals: centrals,
		slots:    slots,
		cov:      cov,
		lower:    lower,
		logDet:   logDet,
	}, nil
}

// Name returns the diagnostic name the group was built with.
func (g *Group) Name() string { return g.name }

// Dim returns the number of observables N.
func (g *Group) Dim() int { return len(g.centrals) }

// Centrals returns a copy of the published central values.
func (g *Group) Centrals() []float64 {
	out := make([]float64, len(g.centrals))
	copy(out, g.centrals)
	return out
}

// Slots returns the uncertainty sources that entered the covariance.
func (g *Group) Slots() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Covariance returns a copy of the combined covariance.
func (g *Group) Covariance() *mat.SymDense {
	out := mat.NewSymDense(g.Dim(), nil)
	out.CopySym(g.cov)
	return out
}

// LogDet returns ln|Σ|.
func (g *Group) LogDet() float64 { return g.logDet }

// Chi2 returns rᵀ Σ⁻¹ r for r = predicted - centrals. It panics with an
// error wrapping core.ErrDimensionMismatch if len(predicted) != Dim().
func (g *Group) Chi2(predicted []float64) float64 {
	n := len(g.centrals)
	if len(predicted) != n {
		panic(core.NewDimensionError(g.name, n, len(predicted)))
	}

	var buf [stackDim]float64
	var y []float64
	if n <= stackDim {
		y = buf[:n]
	} else {
		y = make([]float64, n)
	}

	// Forward substitution L y = r; chi2 = |y|².
	var chi2 float64
	for i := 0; i < n; i++ {
		row := g.lower[i*n : i*n+i+1]
		v := predicted[i] - g.centrals[i] - floats.Dot(row[:i], y[:i])
		y[i] = v / row[i]
		chi2 += y[i] * y[i]
	}
	return chi2
}

// LogWeight returns -chi2/2. See Chi2 for the panic contract.
func (g *Group) LogWeight(predicted []float64) float64 {
	return -0.5 * g.Chi2(predicted)
}

// LogNorm returns the constant -(N ln 2π + ln|Σ|)/2.
func (g *Group) LogNorm() float64 {
	return -0.5 * (float64(len(g.centrals))*math.Log(2*math.Pi) + g.logDet)
}
