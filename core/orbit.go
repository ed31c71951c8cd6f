package core

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/sar-denoise/model"
)

// OrbitInterpolator evaluates platform position and velocity at arbitrary
// relative azimuth times by fitting a degree-3 polynomial through the four
// state vectors nearest to the query, independently per Cartesian component.
type OrbitInterpolator struct {
	times []float64 // relative seconds, ascending
	pos   [3][]float64
	vel   [3][]float64
}

// NewOrbitInterpolator builds an interpolator from the annotated state
// vectors, with times expressed relative to the product mid-coverage time.
// It fails with ErrInsufficientOrbitData when fewer than four samples exist.
func NewOrbitInterpolator(ann *model.Annotation) (*OrbitInterpolator, error) {
	return NewOrbitInterpolatorFromVectors(ann.Orbit, ann.MidTime())
}

// NewOrbitInterpolatorFromVectors is like NewOrbitInterpolator but takes the
// state vectors and time origin directly, for callers that synthesize their
// own orbit (see StateVectorsFromTLE).
func NewOrbitInterpolatorFromVectors(svs []model.OrbitStateVector, origin time.Time) (*OrbitInterpolator, error) {
	if len(svs) < 4 {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientOrbitData, len(svs))
	}
	o := &OrbitInterpolator{times: make([]float64, len(svs))}
	for c := 0; c < 3; c++ {
		o.pos[c] = make([]float64, len(svs))
		o.vel[c] = make([]float64, len(svs))
	}
	for i, sv := range svs {
		o.times[i] = sv.Time.Sub(origin).Seconds()
		if i > 0 && o.times[i] <= o.times[i-1] {
			return nil, fmt.Errorf("%w: orbit state vectors not in increasing time order", ErrInvalidDimension)
		}
		for c := 0; c < 3; c++ {
			o.pos[c][i] = sv.Position[c]
			o.vel[c][i] = sv.Velocity[c]
		}
	}
	return o, nil
}

// PositionVelocityAt returns the interpolated platform position (m) and
// velocity (m/s) at relative time t (seconds).
func (o *OrbitInterpolator) PositionVelocityAt(t float64) (pos, vel Vec3) {
	lo := o.nearestWindow(t)
	var x [4]float64
	for i := 0; i < 4; i++ {
		// Shift times so the query sits at zero; the constant term of the
		// fitted cubic is then the interpolated value.
		x[i] = o.times[lo+i] - t
	}
	var p, v [3]float64
	for c := 0; c < 3; c++ {
		p[c] = cubicValueAtZero(x, o.pos[c][lo:lo+4])
		v[c] = cubicValueAtZero(x, o.vel[c][lo:lo+4])
	}
	return Vec3{p[0], p[1], p[2]}, Vec3{v[0], v[1], v[2]}
}

// SpeedAt returns the interpolated platform speed at relative time t.
func (o *OrbitInterpolator) SpeedAt(t float64) float64 {
	_, vel := o.PositionVelocityAt(t)
	return vel.Norm()
}

// nearestWindow returns the start index of the contiguous 4-sample window
// closest to t. Times are sorted, so the nearest four samples are always
// contiguous.
func (o *OrbitInterpolator) nearestWindow(t float64) int {
	best, bestDist := 0, 0.0
	for lo := 0; lo+4 <= len(o.times); lo++ {
		d := 0.0
		for i := 0; i < 4; i++ {
			dv := o.times[lo+i] - t
			if dv < 0 {
				dv = -dv
			}
			d += dv
		}
		if lo == 0 || d < bestDist {
			best, bestDist = lo, d
		}
	}
	return best
}

// cubicValueAtZero fits a degree-3 polynomial through the four (x, y)
// samples and returns its value at x = 0.
func cubicValueAtZero(x [4]float64, y []float64) float64 {
	a := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		v := 1.0
		for j := 0; j < 4; j++ {
			a.Set(i, j, v)
			v *= x[i]
		}
	}
	b := mat.NewVecDense(4, []float64{y[0], y[1], y[2], y[3]})
	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		// Degenerate abscissae; fall back to the sample nearest the query.
		best := 0
		for i := 1; i < 4; i++ {
			if math.Abs(x[i]) < math.Abs(x[best]) {
				best = i
			}
		}
		return y[best]
	}
	return coef.AtVec(0)
}
