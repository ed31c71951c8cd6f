package core

import (
	"fmt"
	"math"
)

// rqmHalfWidth is the number of pixels sampled on each side of an
// interswath boundary.
const rqmHalfWidth = 100

// BoundaryQuality summarizes the residual interswath step left of one
// subswath boundary after denoising. Lower is better; zero means the two
// sides are statistically indistinguishable. Lines is the number of image
// lines that contributed; when it is zero the Mean carries no information.
type BoundaryQuality struct {
	Subswath string  `json:"subswath"`
	Mean     float64 `json:"mean"`
	Lines    int     `json:"lines"`
}

// RangeQualityMetric measures, for every subswath boundary, the normalized
// intensity step between the last pixels of one subswath and the first
// pixels of the next: |mean(left) - mean(right)| / (std(left) + std(right))
// per line, averaged over all covered lines.
func (s *Scene) RangeQualityMetric(sigma0 *Raster) ([]BoundaryQuality, error) {
	if sigma0.Lines != s.Ann.Shape.Lines || sigma0.Pixels != s.Ann.Shape.Pixels {
		return nil, fmt.Errorf("%w: raster %dx%d vs scene %dx%d", ErrInvalidDimension,
			sigma0.Lines, sigma0.Pixels, s.Ann.Shape.Lines, s.Ann.Shape.Pixels)
	}
	out := make([]BoundaryQuality, 0, len(s.Ann.Subswaths)-1)
	for i := 0; i < len(s.Ann.Subswaths)-1; i++ {
		sw := &s.Ann.Subswaths[i]
		var sum float64
		var lines int
		for _, seg := range sw.Segments {
			firstLine := max(seg.FirstAzimuthLine, 0)
			lastLine := min(seg.LastAzimuthLine, sigma0.Lines-1)
			boundary := seg.LastRangeSample
			for line := firstLine; line <= lastLine; line++ {
				row := sigma0.Row(line)
				left := clipWindow(row, boundary-rqmHalfWidth, boundary)
				right := clipWindow(row, boundary+1, boundary+rqmHalfWidth+1)
				meanL, stdL := nanMeanStd(left)
				meanR, stdR := nanMeanStd(right)
				q := math.Abs(meanL-meanR) / (stdL + stdR)
				if math.IsNaN(q) || math.IsInf(q, 0) {
					continue
				}
				sum += q
				lines++
			}
		}
		bq := BoundaryQuality{Subswath: sw.Name, Lines: lines}
		if lines > 0 {
			bq.Mean = sum / float64(lines)
		}
		out = append(out, bq)
	}
	return out, nil
}

// clipWindow returns row[lo:hi] clamped to valid bounds (hi exclusive).
func clipWindow(row []float64, lo, hi int) []float64 {
	lo = max(lo, 0)
	hi = min(hi, len(row))
	if lo >= hi {
		return nil
	}
	return row[lo:hi]
}

// nanMeanStd returns the mean and population standard deviation over the
// finite samples of v.
func nanMeanStd(v []float64) (mean, std float64) {
	var sum, count float64
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			sum += x
			count++
		}
	}
	if count == 0 {
		return math.NaN(), math.NaN()
	}
	mean = sum / count
	var sq float64
	for _, x := range v {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			d := x - mean
			sq += d * d
		}
	}
	return mean, math.Sqrt(sq / count)
}
