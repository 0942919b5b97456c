package measurement

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorfit/domain/core"
)

func TestNewCorrelation_Symmetrizes(t *testing.T) {
	// Compact upper triangle.
	c, err := NewCorrelation([][]float64{
		{1, 0.2, -0.3},
		{1, 0.4},
		{1},
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, c.At(i, i))
		for j := 0; j < 3; j++ {
			assert.Equal(t, c.At(i, j), c.At(j, i), "rho[%d][%d]", i, j)
		}
	}
	assert.Equal(t, 0.4, c.At(2, 1))

	// Full rows with a garbage lower triangle: only the upper part counts.
	full, err := NewCorrelation([][]float64{
		{1, 0.2, -0.3},
		{0, 1, 0.4},
		{0, 0, 1},
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, c.At(i, j), full.At(i, j))
		}
	}
}

func TestNewCorrelation_Invalid(t *testing.T) {
	cases := map[string][][]float64{
		"empty":        {},
		"ragged":       {{1, 0.1, 0.2}, {1}, {1}},
		"bad diagonal": {{0.9, 0.1}, {1}},
		"out of range": {{1, 1.5}, {1}},
		"nan":          {{1, math.NaN()}, {1}},
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCorrelation(rows)
			assert.ErrorIs(t, err, core.ErrInvalidCorrelation)
		})
	}
}

func TestGroup_ExampleScenario(t *testing.T) {
	g, err := NewGroup("example", []Measurement{
		MustNew(0.5, 0.1),
		MustNew(0.2, 0.1),
	}, []SlotCorrelation{
		{Slot: Stat, Correlation: MustCorrelation([][]float64{{1, 0.5}, {1}})},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, g.LogWeight([]float64{0.5, 0.2}))

	off := g.LogWeight([]float64{0.6, 0.2})
	assert.False(t, math.IsInf(off, 0) || math.IsNaN(off))
	assert.Less(t, off, 0.0)
	// Σ⁻¹_00 = 1/(0.01·0.75), so chi2 = 0.01/0.0075.
	assert.InDelta(t, -0.5*0.01/0.0075, off, 1e-9)
}

func TestGroup_IdentityEqualsIndependentSum(t *testing.T) {
	ms := []Measurement{
		MustNew(0.10, 0.01, 0.02),
		MustNew(-0.30, 0.05, 0, 0.03),
		MustNew(1.70, 0.20, 0.10, 0.05, 0.01),
	}
	g, err := NewGroup("independent", ms, []SlotCorrelation{
		{Slot: Stat, Correlation: Identity(3)},
		{Slot: Syst, Correlation: Identity(3)},
	})
	require.NoError(t, err)

	pred := []float64{0.13, -0.2, 1.5}
	var want float64
	for i, m := range ms {
		want += m.LogWeight(pred[i])
	}
	assert.InDelta(t, want, g.LogWeight(pred), 1e-12)

	var wantNorm float64
	for _, m := range ms {
		wantNorm += m.LogNorm()
	}
	assert.InDelta(t, wantNorm, g.LogNorm(), 1e-12)
}

func TestGroup_SingleMeasurementRoundTrip(t *testing.T) {
	m := MustNew(0.0568, 0.0096, 0.002, 0.0014)
	g, err := NewGroup("single", []Measurement{m}, nil)
	require.NoError(t, err)

	for _, p := range []float64{-0.1, 0.0, 0.0568, 0.07, 0.3} {
		assert.InDelta(t, m.LogWeight(p), g.LogWeight([]float64{p}), 1e-12)
	}
	assert.InDelta(t, m.LogNorm(), g.LogNorm(), 1e-12)
}

func TestGroup_GlobalMaximumAtCentrals(t *testing.T) {
	g, err := NewGroup("ggsz", []Measurement{
		MustNew(0.0568, 0.0096, 0.0020),
		MustNew(0.0654, 0.0114, 0.0030),
		MustNew(-0.0919, 0.0096, 0.0020),
		MustNew(-0.0117, 0.0120, 0.0030),
	}, []SlotCorrelation{
		{Slot: Stat, Correlation: MustCorrelation([][]float64{
			{1, -0.125, -0.013, 0.019},
			{1, 0.015, -0.025},
			{1, 0.037},
			{1},
		})},
		{Slot: Syst, Correlation: MustCorrelation([][]float64{
			{1, 0.4, 0.6, 0.1},
			{1, 0.2, 0.5},
			{1, 0.3},
			{1},
		})},
	})
	require.NoError(t, err)

	best := g.LogWeight(g.Centrals())
	assert.Equal(t, 0.0, best)

	shifts := [][]float64{
		{0.01, 0, 0, 0},
		{0, -0.02, 0, 0},
		{0.005, 0.005, 0.005, 0.005},
		{-0.03, 0.01, 0.02, -0.01},
	}
	for _, d := range shifts {
		v := g.Centrals()
		for i := range v {
			v[i] += d[i]
		}
		assert.Less(t, g.LogWeight(v), best)
	}
}

func TestGroup_CovarianceAssembly(t *testing.T) {
	g, err := NewGroup("two-source", []Measurement{
		MustNew(1, 0.1, 0.2),
		MustNew(2, 0.3, 0.4),
	}, []SlotCorrelation{
		{Slot: Syst, Correlation: MustCorrelation([][]float64{{1, 0.5}, {1}})},
	})
	require.NoError(t, err)

	cov := g.Covariance()
	// stat defaults to uncorrelated, syst carries rho = 0.5
	assert.InDelta(t, 0.01+0.04, cov.At(0, 0), 1e-15)
	assert.InDelta(t, 0.09+0.16, cov.At(1, 1), 1e-15)
	assert.InDelta(t, 0.2*0.4*0.5, cov.At(0, 1), 1e-15)
	assert.InDelta(t, cov.At(0, 1), cov.At(1, 0), 0)
	assert.Equal(t, []Slot{Stat, Syst}, g.Slots())

	cov.SetSym(0, 0, 100)
	assert.InDelta(t, 0.05, g.Covariance().At(0, 0), 1e-15, "Covariance returns a copy")
}

func TestGroup_LargeDimensionUsesHeapBuffer(t *testing.T) {
	n := stackDim + 4
	ms := make([]Measurement, n)
	pred := make([]float64, n)
	var want float64
	for i := range ms {
		ms[i] = MustNew(float64(i), 0.5)
		pred[i] = float64(i) + 0.25
		want += ms[i].LogWeight(pred[i])
	}
	g, err := NewGroup("wide", ms, nil)
	require.NoError(t, err)
	assert.InDelta(t, want, g.LogWeight(pred), 1e-12)
}

func TestNewGroup_ConstructionErrors(t *testing.T) {
	two := []Measurement{MustNew(1, 1), MustNew(2, 1)}

	_, err := NewGroup("empty", nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyGroup)

	_, err = NewGroup("size", two, []SlotCorrelation{{Slot: Stat, Correlation: Identity(3)}})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Contains(t, err.Error(), `"size"`)

	_, err = NewGroup("twice", two, []SlotCorrelation{
		{Slot: Stat, Correlation: Identity(2)},
		{Slot: Stat, Correlation: Identity(2)},
	})
	assert.ErrorIs(t, err, core.ErrInvalidCorrelation)

	_, err = NewGroup("bad slot", two, []SlotCorrelation{{Slot: Slot(9), Correlation: Identity(2)}})
	assert.ErrorIs(t, err, core.ErrInvalidCorrelation)

	_, err = NewGroup("singular", two, []SlotCorrelation{
		{Slot: Stat, Correlation: MustCorrelation([][]float64{{1, 1}, {1}})},
	})
	assert.ErrorIs(t, err, core.ErrSingularCovariance)
	assert.True(t, core.IsDataEntryError(err))
}

func TestGroup_LengthMismatchPanics(t *testing.T) {
	g, err := NewGroup("pair", []Measurement{MustNew(1, 1), MustNew(2, 1)}, nil)
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, core.ErrDimensionMismatch))
		assert.Contains(t, err.Error(), "pair")
	}()
	g.LogWeight([]float64{1})
}
