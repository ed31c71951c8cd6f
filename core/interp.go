package core

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Interp1D is a fitted one-dimensional interpolator. Queries outside the
// fitted domain are clamped to the nearest endpoint, which keeps dense-grid
// expansion deterministic when sparse samples stop short of a subswath edge.
type Interp1D struct {
	pred   interp.Predictor
	x0, x1 float64
}

// NewSpline1D fits a cubic spline through the samples. xs must be strictly
// increasing and at least two long; with exactly two or three samples the
// fit degrades to the piecewise-linear interpolant.
func NewSpline1D(xs, ys []float64) (*Interp1D, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x vs %d y samples", ErrInvalidDimension, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrNoValidSamples, len(xs))
	}
	if len(xs) < 4 {
		return NewLinear1D(xs, ys)
	}
	if err := checkStrictlyIncreasing(xs); err != nil {
		return nil, err
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &Interp1D{pred: &nc, x0: xs[0], x1: xs[len(xs)-1]}, nil
}

// NewLinear1D fits a piecewise-linear interpolant through the samples.
func NewLinear1D(xs, ys []float64) (*Interp1D, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x vs %d y samples", ErrInvalidDimension, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrNoValidSamples, len(xs))
	}
	if err := checkStrictlyIncreasing(xs); err != nil {
		return nil, err
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, err
	}
	return &Interp1D{pred: &pl, x0: xs[0], x1: xs[len(xs)-1]}, nil
}

// checkStrictlyIncreasing rejects abscissae that would make gonum's Fit
// panic, so callers see a skippable error for degenerate records instead.
func checkStrictlyIncreasing(xs []float64) error {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("%w: x samples not strictly increasing at index %d", ErrInvalidDimension, i)
		}
	}
	return nil
}

// At evaluates the interpolator at x, clamped to the fitted domain.
func (ip *Interp1D) At(x float64) float64 {
	if x < ip.x0 {
		x = ip.x0
	} else if x > ip.x1 {
		x = ip.x1
	}
	return ip.pred.Predict(x)
}

// Grid2D is a bilinear interpolator over a rectangular grid: vals[i][j]
// holds the value at (ys[i], xs[j]). Queries outside the grid are clamped to
// the boundary, mirroring the 1D behaviour.
type Grid2D struct {
	ys, xs []float64
	vals   [][]float64
}

// NewGrid2D validates the axes and wraps the value grid without copying.
func NewGrid2D(ys, xs []float64, vals [][]float64) (*Grid2D, error) {
	if len(ys) < 2 || len(xs) < 2 {
		return nil, fmt.Errorf("%w: grid needs at least 2 samples per axis", ErrNoValidSamples)
	}
	if len(vals) != len(ys) {
		return nil, fmt.Errorf("%w: %d rows vs %d y samples", ErrInvalidDimension, len(vals), len(ys))
	}
	for i, row := range vals {
		if len(row) != len(xs) {
			return nil, fmt.Errorf("%w: row %d has %d values vs %d x samples",
				ErrInvalidDimension, i, len(row), len(xs))
		}
	}
	for i := 1; i < len(ys); i++ {
		if ys[i] <= ys[i-1] {
			return nil, fmt.Errorf("%w: y axis not strictly increasing", ErrInvalidDimension)
		}
	}
	for j := 1; j < len(xs); j++ {
		if xs[j] <= xs[j-1] {
			return nil, fmt.Errorf("%w: x axis not strictly increasing", ErrInvalidDimension)
		}
	}
	return &Grid2D{ys: ys, xs: xs, vals: vals}, nil
}

// At evaluates the bilinear interpolant at (y, x).
func (g *Grid2D) At(y, x float64) float64 {
	i, ty := cellOf(g.ys, y)
	j, tx := cellOf(g.xs, x)
	v00 := g.vals[i][j]
	v01 := g.vals[i][j+1]
	v10 := g.vals[i+1][j]
	v11 := g.vals[i+1][j+1]
	return v00*(1-ty)*(1-tx) + v01*(1-ty)*tx + v10*ty*(1-tx) + v11*ty*tx
}

// cellOf locates the grid cell containing v and the normalized offset within
// it, clamping v to the axis range.
func cellOf(axis []float64, v float64) (idx int, t float64) {
	n := len(axis)
	if v <= axis[0] {
		return 0, 0
	}
	if v >= axis[n-1] {
		return n - 2, 1
	}
	idx = sort.SearchFloat64s(axis, v) - 1
	if idx < 0 {
		idx = 0
	}
	t = (v - axis[idx]) / (axis[idx+1] - axis[idx])
	return idx, t
}
