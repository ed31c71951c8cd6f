package core

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
)

// Range-noise vectors in some processor versions carry a small range shift
// relative to the antenna gain signature they were derived from. The
// alignment pass estimates that shift per record by cross-correlating the
// reconstructed vector against the expected combined antenna+range gain and
// resamples the vector with the shift removed.
const (
	alignBuffer       = 150 // pixels trimmed off each end of the reference window
	alignMaxIter      = 10
	alignTolerance    = 1e-2 // pixels
	alignOversampling = 10
)

// estimateShift returns the sub-sample lag of test relative to reference
// that maximizes their normalized cross-correlation. test must be longer
// than reference; the returned shift is centered so that zero means test's
// central window matches.
func estimateShift(reference, test []float64) float64 {
	nLags := len(test) - len(reference) + 1
	if nLags < 2 {
		return 0
	}
	lags := make([]float64, nLags)
	cc := make([]float64, nLags)
	for lag := 0; lag < nLags; lag++ {
		lags[lag] = float64(lag)
		cc[lag] = stat.Correlation(reference, test[lag:lag+len(reference)], nil)
	}
	ip, err := NewSpline1D(lags, cc)
	if err != nil {
		return 0
	}
	best, bestVal := 0.0, math.Inf(-1)
	steps := (nLags-1)*alignOversampling + 1
	for i := 0; i < steps; i++ {
		x := float64(i) * float64(nLags) / float64(steps-1)
		if v := ip.At(x); v > bestVal {
			best, bestVal = x, v
		}
	}
	return best - float64(nLags/2)
}

// alignedNoiseRow returns a row sampler that removes the annotated range
// shift from each noise record before densification. The shift found in
// pixel units is rescaled through the local elevation-angle gradient so
// that it is constant in angle rather than in pixels.
func (s *Scene) alignedNoiseRow() (rowFunc, error) {
	m, err := s.antenna()
	if err != nil {
		return nil, err
	}
	g, err := s.Geo()
	if err != nil {
		return nil, err
	}
	swathIndex := s.SubswathIndexMap()

	return func(line int, pixel, value, xBins []float64) []float64 {
		if len(xBins) <= 2*alignBuffer+1 {
			return splineRow(line, pixel, value, xBins)
		}
		sw := int(swathIndex.At(line, int(xBins[len(xBins)/2]))) - 1
		if sw < 0 {
			return splineRow(line, pixel, value, xBins)
		}

		ref := make([]float64, len(xBins)-2*alignBuffer)
		for i := range ref {
			ref[i] = m.referenceGainAt(sw, float64(line), xBins[alignBuffer+i])
		}
		ip, err := NewSpline1D(pixel, value)
		if err != nil {
			return nil
		}

		shift, converged := 0.0, false
		test := make([]float64, len(xBins))
		for iter := 0; iter < alignMaxIter; iter++ {
			for i, x := range xBins {
				test[i] = ip.At(x + shift)
			}
			delta := estimateShift(ref, test)
			shift += delta
			if math.Abs(delta) <= alignTolerance {
				converged = true
				break
			}
		}
		if !converged {
			s.log.Warn("noise vector shift search hit iteration cap",
				logging.Int("line", line), logging.Float("shift", shift))
			s.metrics.RecordAlignmentFailure()
		}

		// The annotated shift is constant in elevation angle. Convert the
		// pixel shift to an angle offset at the record's mean angle
		// increment, then back to per-pixel shifts through the local
		// gradient.
		elev := make([]float64, len(xBins))
		for i, x := range xBins {
			elev[i] = g.elevation.At(float64(line), x)
		}
		shiftAngle := shift * (elev[len(elev)-1] - elev[0]) / float64(len(elev)-1)
		grad := gradient(elev)

		out := make([]float64, len(xBins))
		for i, x := range xBins {
			if grad[i] == 0 {
				return nil
			}
			out[i] = ip.At(x + shiftAngle/grad[i])
		}
		return out
	}, nil
}

// gradient returns central-difference derivatives with one-sided stencils
// at the ends, assuming unit spacing.
func gradient(v []float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = v[1] - v[0]
	out[n-1] = v[n-1] - v[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (v[i+1] - v[i-1]) / 2
	}
	return out
}
