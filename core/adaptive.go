package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-denoise/model"
)

// adaptiveWindowSize is the box side used for local SNR estimation.
const adaptiveWindowSize = 5

// boxFilter convolves the raster with a normalized size x size box kernel.
// Samples outside the image count as zero, matching a constant-padded
// convolution.
func boxFilter(r *Raster, size int) *Raster {
	half := size / 2
	norm := 1 / float64(size*size)
	out := NewRaster(r.Lines, r.Pixels)
	for line := 0; line < r.Lines; line++ {
		for pixel := 0; pixel < r.Pixels; pixel++ {
			var sum float64
			for dy := -half; dy <= half; dy++ {
				y := line + dy
				if y < 0 || y >= r.Lines {
					continue
				}
				row := r.Row(y)
				for dx := -half; dx <= half; dx++ {
					x := pixel + dx
					if x >= 0 && x < r.Pixels {
						sum += row[x]
					}
				}
			}
			out.Set(line, pixel, sum*norm)
		}
	}
	return out
}

// AdaptiveNoiseScaling scales the noise raster where the local
// signal-to-noise ratio indicates residual noise power, using the
// per-subswath extra scaling curves. Only windows fully inside one subswath
// are touched. The noise raster is modified in place and returned.
func (s *Scene) AdaptiveNoiseScaling(sigma0, noise *Raster, coeffs map[string]model.SubswathCoefficients) (*Raster, error) {
	if !sigma0.SameShape(noise) {
		return nil, fmt.Errorf("%w: sigma0 %dx%d vs noise %dx%d",
			ErrInvalidDimension, sigma0.Lines, sigma0.Pixels, noise.Lines, noise.Pixels)
	}
	meanSigma0 := boxFilter(sigma0, adaptiveWindowSize)
	meanNoise := boxFilter(noise, adaptiveWindowSize)
	meanIndex := boxFilter(s.SubswathIndexMap(), adaptiveWindowSize)

	for i := range s.Ann.Subswaths {
		sw := &s.Ann.Subswaths[i]
		curve := coeffs[sw.Name].ExtraScaling
		if curve.Identity() {
			continue
		}
		ip, err := NewSpline1D(curve.SNR, curve.Gain)
		if err != nil {
			return nil, fmt.Errorf("subswath %s extra scaling curve: %w", sw.Name, err)
		}
		want := float64(i + 1)
		for line := 0; line < noise.Lines; line++ {
			idxRow := meanIndex.Row(line)
			s0Row := meanSigma0.Row(line)
			n0Row := meanNoise.Row(line)
			outRow := noise.Row(line)
			for pixel := range outRow {
				if idxRow[pixel] != want {
					continue
				}
				snr := 10 * math.Log10(s0Row[pixel]/n0Row[pixel]-1)
				if math.IsNaN(snr) || math.IsInf(snr, 0) {
					continue
				}
				outRow[pixel] *= ip.At(snr)
			}
		}
	}
	return noise, nil
}
