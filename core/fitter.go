package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Offline coefficient fitting. The fitter consumes range-averaged profiles
// of calibrated signal and reconstructed noise power and produces the
// per-subswath scaling factors and interswath balancing offsets that the
// denoiser applies at run time.

// ScalingFit is the outcome of fitting one noise scaling factor to one
// averaged profile block.
type ScalingFit struct {
	ScalingFactor float64
	Correlation   float64
	Residual      float64
}

// goldenMinimize finds the minimum of f on [a, b] by golden-section search.
func goldenMinimize(f func(float64) float64, a, b, tol float64) float64 {
	const invPhi = 0.6180339887498949
	x1 := b - invPhi*(b-a)
	x2 := a + invPhi*(b-a)
	f1, f2 := f(x1), f(x2)
	for i := 0; i < 200 && b-a > tol; i++ {
		if f1 < f2 {
			b, x2, f2 = x2, x1, f1
			x1 = b - invPhi*(b-a)
			f1 = f(x1)
		} else {
			a, x1, f1 = x1, x2, f2
			x2 = a + invPhi*(b-a)
			f2 = f(x2)
		}
	}
	return (a + b) / 2
}

// weightedLinearResidual fits y = slope*x + intercept with the given
// quadratic weights and returns the weighted sum of squared residuals.
func weightedLinearResidual(x, y, w []float64) float64 {
	slope, intercept := linearFit(x, y, w)
	var res float64
	for i := range x {
		r := y[i] - (intercept + slope*x[i])
		res += w[i] * r * r
	}
	return res
}

func linearFit(x, y, w []float64) (slope, intercept float64) {
	intercept, slope = stat.LinearRegression(x, y, w, false)
	return slope, intercept
}

// FitNoiseScaling finds the factor k in [0, 3] minimizing the weighted
// linear misfit of sigma0 - k*noise against the pixel axis. Weights follow
// the absolute noise gradient so that subswath transition slopes dominate
// the fit.
func FitNoiseScaling(pixel, sigma0, noise []float64) (ScalingFit, error) {
	n := len(pixel)
	if n < 3 || len(sigma0) != n || len(noise) != n {
		return ScalingFit{}, fmt.Errorf("%w: profile lengths %d/%d/%d",
			ErrInvalidDimension, len(pixel), len(sigma0), len(noise))
	}
	grad := gradient(noise)
	var sum float64
	for i := range grad {
		grad[i] = math.Abs(grad[i])
		sum += grad[i]
	}
	if sum == 0 {
		return ScalingFit{}, fmt.Errorf("%w: flat noise profile", ErrNoValidSamples)
	}
	w := make([]float64, n)
	for i := range w {
		// Linear weight per sample; the solver wants quadratic weights.
		lw := grad[i] / sum * math.Sqrt(float64(n))
		w[i] = lw * lw
	}

	diff := make([]float64, n)
	errFunc := func(k float64) float64 {
		for i := range diff {
			diff[i] = sigma0[i] - k*noise[i]
		}
		return weightedLinearResidual(pixel, diff, w)
	}
	k := goldenMinimize(errFunc, 0, 3, 1e-5)

	scaled := make([]float64, n)
	for i := range scaled {
		scaled[i] = k * noise[i]
	}
	return ScalingFit{
		ScalingFactor: k,
		Correlation:   stat.Correlation(sigma0, scaled, nil),
		Residual:      errFunc(k),
	}, nil
}

// BalancingBlock is one subswath's averaged profile at a shared record
// line. Profiles must already have the scaling factors applied to
// ScaledNoise; RawNoise is the unscaled reconstruction used as the power
// reference.
type BalancingBlock struct {
	Pixel       []float64
	Sigma0      []float64
	ScaledNoise []float64
	RawNoise    []float64
	// LastSample is the subswath's right boundary pixel where residual
	// power is evaluated against the next subswath.
	LastSample float64
}

// FitPowerBalancing computes one additive offset per subswath that removes
// residual power steps at the interswath boundaries. Offsets accumulate
// left to right and are then bias-shifted so that the mean noise power over
// the second and later subswaths matches the raw reconstruction.
func FitPowerBalancing(blocks []BalancingBlock) ([]float64, error) {
	if len(blocks) < 2 {
		return nil, fmt.Errorf("%w: %d subswath blocks", ErrInvalidDimension, len(blocks))
	}
	type fit struct{ slope, intercept float64 }
	fits := make([]fit, len(blocks))
	for i, blk := range blocks {
		n := len(blk.Pixel)
		if n < 2 || len(blk.Sigma0) != n || len(blk.ScaledNoise) != n || len(blk.RawNoise) != n {
			return nil, fmt.Errorf("%w: block %d profile lengths", ErrInvalidDimension, i)
		}
		diff := make([]float64, n)
		for j := range diff {
			diff[j] = blk.Sigma0[j] - blk.ScaledNoise[j]
		}
		slope, intercept := linearFit(blk.Pixel, diff, nil)
		if math.IsNaN(slope) || math.IsNaN(intercept) {
			return nil, fmt.Errorf("%w: block %d fit is NaN", ErrNoValidSamples, i)
		}
		fits[i] = fit{slope, intercept}
	}

	offsets := make([]float64, len(blocks))
	for i := 0; i < len(blocks)-1; i++ {
		boundary := blocks[i].LastSample
		left := fits[i].slope*boundary + fits[i].intercept
		right := fits[i+1].slope*boundary + fits[i+1].intercept
		offsets[i+1] = right - left
	}
	for i := 1; i < len(offsets); i++ {
		offsets[i] += offsets[i-1]
	}

	// Balancing must not change the total noise power, so remove the mean
	// departure from the raw reconstruction over the offset subswaths.
	var bias, count float64
	for i := 1; i < len(blocks); i++ {
		for j := range blocks[i].RawNoise {
			d := blocks[i].RawNoise[j] - (blocks[i].ScaledNoise[j] + offsets[i])
			if !math.IsNaN(d) {
				bias += d
				count++
			}
		}
	}
	if count > 0 {
		bias /= count
		for i := range offsets {
			offsets[i] += bias
		}
	}
	return offsets, nil
}
