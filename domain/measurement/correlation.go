package measurement

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"flavorfit/domain/core"
)

// diagTolerance is how far a published diagonal may sit from 1 before the
// matrix is rejected; tables are often typed with rounded entries.
const diagTolerance = 1e-9

// Correlation is a symmetric N×N correlation matrix with unit diagonal.
type Correlation struct {
	sym *mat.SymDense
}

// NewCorrelation builds a correlation matrix from its upper triangle.
// Row i may hold either the n-i entries starting at the diagonal or a full
// row of n entries; in the latter case entries below the diagonal are
// ignored. The lower triangle is always taken from the upper one.
func NewCorrelation(rows [][]float64) (*Correlation, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", core.ErrInvalidCorrelation)
	}

	sym := mat.NewSymDense(n, nil)
	for i, row := range rows {
		var offset int
		switch len(row) {
		case n - i:
			offset = i
		case n:
			offset = 0
		default:
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d or %d",
				core.ErrInvalidCorrelation, i, len(row), n-i, n)
		}
		for j := i; j < n; j++ {
			rho := row[j-offset]
			if math.IsNaN(rho) || math.Abs(rho) > 1 {
				return nil, fmt.Errorf("%w: rho[%d][%d] = %v", core.ErrInvalidCorrelation, i, j, rho)
			}
			if i == j {
				if math.Abs(rho-1) > diagTolerance {
					return nil, fmt.Errorf("%w: diagonal entry %d is %v", core.ErrInvalidCorrelation, i, rho)
				}
				rho = 1
			}
			sym.SetSym(i, j, rho)
		}
	}
	return &Correlation{sym: sym}, nil
}

// MustCorrelation is NewCorrelation for literal data tables.
func MustCorrelation(rows [][]float64) *Correlation {
	c, err := NewCorrelation(rows)
	if err != nil {
		panic(err)
	}
	return c
}

// Identity returns the n×n uncorrelated matrix.
func Identity(n int) *Correlation {
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
	}
	return &Correlation{sym: sym}
}

// Dim returns N.
func (c *Correlation) Dim() int { return c.sym.SymmetricDim() }

// At returns rho_ij; At(i, j) == At(j, i) for all i, j.
func (c *Correlation) At(i, j int) float64 { return c.sym.At(i, j) }

// SlotCorrelation binds a correlation matrix to the uncertainty source it describes.
type SlotCorrelation struct {
	Slot        Slot
	Correlation *Correlation
}
