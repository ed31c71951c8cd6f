package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/sar-denoise/model"
)

// elevationGainInterp builds the elevation antenna gain interpolator from a
// LUT whose values are interleaved (I, Q)-like pairs. The pairs are
// magnitude-combined before fitting, matching how the combined gain enters
// the reference antenna+range signature.
func elevationGainInterp(lut model.ElementPatternLUT) (*Interp1D, error) {
	if len(lut.Values)%2 != 0 || len(lut.Values) == 0 {
		return nil, fmt.Errorf("%w: elevation pattern LUT has %d values, want even non-zero",
			ErrInvalidDimension, len(lut.Values))
	}
	n := len(lut.Values) / 2
	angles := make([]float64, n)
	gains := make([]float64, n)
	for i := 0; i < n; i++ {
		re, im := lut.Values[2*i], lut.Values[2*i+1]
		angles[i] = float64(i-n/2) * lut.AngleIncrement
		gains[i] = math.Sqrt(math.Sqrt(re*re + im*im))
	}
	return NewSpline1D(angles, gains)
}

// azimuthGainInterp builds the azimuth element-pattern interpolator. Values
// are one-way gains in dB on a symmetric angle axis.
func azimuthGainInterp(lut model.ElementPatternLUT) (*Interp1D, error) {
	if len(lut.Values) == 0 {
		return nil, fmt.Errorf("%w: empty azimuth pattern LUT", ErrInvalidDimension)
	}
	n := len(lut.Values)
	angles := make([]float64, n)
	for i := range angles {
		angles[i] = float64(i-n/2) * lut.AngleIncrement
	}
	return NewLinear1D(angles, lut.Values)
}

// rollInterpolator fits platform roll versus relative azimuth time from the
// antenna-pattern records of every subswath.
func (s *Scene) rollInterpolator() (*Interp1D, error) {
	if s.roll != nil {
		return s.roll, nil
	}
	type sample struct{ t, roll float64 }
	var samples []sample
	for i := range s.Ann.Subswaths {
		for _, rec := range s.Ann.Subswaths[i].AntennaPattern {
			samples = append(samples, sample{s.Ann.RelSeconds(rec.AzimuthTime), rec.Roll})
		}
	}
	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: %d antenna pattern records", ErrNoValidSamples, len(samples))
	}
	sort.Slice(samples, func(a, b int) bool { return samples[a].t < samples[b].t })
	ts := make([]float64, 0, len(samples))
	rolls := make([]float64, 0, len(samples))
	for _, sm := range samples {
		// Records from adjacent subswaths can share a timestamp; keep the
		// first, the spline needs strictly increasing abscissae.
		if n := len(ts); n > 0 && sm.t <= ts[n-1] {
			continue
		}
		ts = append(ts, sm.t)
		rolls = append(rolls, sm.roll)
	}
	ip, err := NewSpline1D(ts, rolls)
	if err != nil {
		return nil, err
	}
	s.roll = ip
	return ip, nil
}

// antennaModel bundles the per-scene interpolators behind the reference
// antenna+range gain signature: boresight angle and range spreading loss on
// the geolocation grid, and one elevation gain curve per subswath.
type antennaModel struct {
	boresight *Grid2D
	rsl       *Grid2D
	eap       []*Interp1D
}

// antenna builds the antenna model: boresight angle = annotated elevation
// angle minus interpolated platform roll, and range spreading loss from
// slant-range time against the annotated reference range.
func (s *Scene) antenna() (*antennaModel, error) {
	g, err := s.Geo()
	if err != nil {
		return nil, err
	}
	roll, err := s.rollInterpolator()
	if err != nil {
		return nil, err
	}
	if s.Ann.ReferenceRange <= 0 {
		return nil, fmt.Errorf("%w: reference range %g", ErrInvalidDimension, s.Ann.ReferenceRange)
	}

	ny, nx := len(g.lines), len(g.pixels)
	bsGrid := make([][]float64, ny)
	rslGrid := make([][]float64, ny)
	for i := 0; i < ny; i++ {
		bsGrid[i] = make([]float64, nx)
		rslGrid[i] = make([]float64, nx)
		for j := 0; j < nx; j++ {
			y, x := g.lines[i], g.pixels[j]
			bsGrid[i][j] = g.elevation.At(y, x) - roll.At(g.azimuthTime.At(y, x))
			slantRange := g.slantRangeTime.At(y, x) * SpeedOfLight / 2
			rslGrid[i][j] = math.Pow(s.Ann.ReferenceRange/slantRange, 1.5)
		}
	}

	m := &antennaModel{}
	if m.boresight, err = NewGrid2D(g.lines, g.pixels, bsGrid); err != nil {
		return nil, err
	}
	if m.rsl, err = NewGrid2D(g.lines, g.pixels, rslGrid); err != nil {
		return nil, err
	}
	m.eap = make([]*Interp1D, len(s.Ann.Subswaths))
	for i := range s.Ann.Subswaths {
		if m.eap[i], err = elevationGainInterp(s.Ann.Subswaths[i].ElevationPattern); err != nil {
			return nil, fmt.Errorf("subswath %s: %w", s.Ann.Subswaths[i].Name, err)
		}
	}
	return m, nil
}

// referenceGainAt returns the expected combined antenna+range power gain at
// one pixel: (1 / elevationGain / rangeSpreadingLoss)^2.
func (m *antennaModel) referenceGainAt(swIdx int, line, pixel float64) float64 {
	eap := m.eap[swIdx].At(m.boresight.At(line, pixel))
	rsl := m.rsl.At(line, pixel)
	return 1 / (eap * rsl) / (eap * rsl)
}

// ElevationPatternMap densifies the elevation antenna gain over the image,
// evaluated at each pixel's boresight angle. Pixels outside every subswath
// stay NaN.
func (s *Scene) ElevationPatternMap() (*Raster, error) {
	m, err := s.antenna()
	if err != nil {
		return nil, err
	}
	swathIndex := s.SubswathIndexMap()
	out := NewNaNRaster(s.Ann.Shape.Lines, s.Ann.Shape.Pixels)
	for line := 0; line < out.Lines; line++ {
		idxRow := swathIndex.Row(line)
		outRow := out.Row(line)
		for pixel, idx := range idxRow {
			if idx == 0 {
				continue
			}
			sw := int(idx) - 1
			outRow[pixel] = m.eap[sw].At(m.boresight.At(float64(line), float64(pixel)))
		}
	}
	return out, nil
}

// Elevation-angle refinement via orbit geometry. Not used by the primary
// pipeline; callers wanting the high-accuracy mode interpolate these angles
// instead of the annotated ones.
const (
	refineAngleStep     = 1e-3 // degrees, finite-difference step
	refineMaxIter       = 100
	refineDistThreshold = 1e-2 // metres
)

// refineDepressionAngle solves for the depression angle whose ellipsoid
// intersection matches the annotated slant range, by a damped Newton
// iteration on the range error. It returns the angle, whether the iteration
// converged, and how many steps it took.
func refineDepressionAngle(pos, vel Vec3, slantRange float64) (angle float64, converged bool, iters int) {
	look := vel.Cross(pos).Unit()
	rotAxis := pos.Cross(look).Unit()
	angle = 45.0
	for iters = 0; iters < refineMaxIter; iters++ {
		r1 := SlantRangeToTarget(pos, PlanarRotation(rotAxis, look, angle), 0)
		r2 := SlantRangeToTarget(pos, PlanarRotation(rotAxis, look, angle+refineAngleStep), 0)
		err1 := r1 - slantRange
		err2 := r2 - slantRange
		slope := (err1 - err2) / refineAngleStep
		if slope == 0 || math.IsNaN(slope) {
			return angle, false, iters
		}
		angle += err1 / slope
		if math.Abs(err1) < refineDistThreshold {
			return angle, true, iters + 1
		}
	}
	return angle, false, iters
}

// RefinedElevationGrid recomputes elevation angles at the geolocation grid
// nodes from the orbit fit and the WGS-84 ellipsoid.
func (s *Scene) RefinedElevationGrid() (*Grid2D, error) {
	g, err := s.Geo()
	if err != nil {
		return nil, err
	}
	orbit, err := s.Orbit()
	if err != nil {
		return nil, err
	}
	ny, nx := len(g.lines), len(g.pixels)
	vals := make([][]float64, ny)
	for i := 0; i < ny; i++ {
		vals[i] = make([]float64, nx)
		for j := 0; j < nx; j++ {
			t := g.azimuthTime.At(g.lines[i], g.pixels[j])
			pos, vel := orbit.PositionVelocityAt(t)
			slantRange := g.slantRangeTime.At(g.lines[i], g.pixels[j]) * SpeedOfLight / 2
			depression, _, _ := refineDepressionAngle(pos, vel, slantRange)
			vals[i][j] = 90 - depression
		}
	}
	return NewGrid2D(g.lines, g.pixels, vals)
}
