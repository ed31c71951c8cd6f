package core

import (
	"math"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/model"
)

// SubswathIndexMap rasterizes the subswath boundary rectangles. The value at
// each pixel is the 1-based subswath number, or 0 where no subswath covers
// the pixel. Boundary rectangles partition every covered line into
// contiguous, non-overlapping pixel ranges, so later rectangles never
// overwrite earlier ones on valid input.
func (s *Scene) SubswathIndexMap() *Raster {
	if s.swathIndex != nil {
		return s.swathIndex
	}
	out := NewRaster(s.Ann.Shape.Lines, s.Ann.Shape.Pixels)
	for i := range s.Ann.Subswaths {
		for _, seg := range s.Ann.Subswaths[i].Segments {
			for line := seg.FirstAzimuthLine; line <= seg.LastAzimuthLine && line < out.Lines; line++ {
				if line < 0 {
					continue
				}
				row := out.Row(line)
				for pixel := seg.FirstRangeSample; pixel <= seg.LastRangeSample && pixel < out.Pixels; pixel++ {
					if pixel >= 0 {
						row[pixel] = float64(i + 1)
					}
				}
			}
		}
	}
	s.swathIndex = out
	return out
}

// sparseTable is the uniform shape of every scattered annotation vector:
// one record per line, each with parallel pixel and value arrays.
type sparseTable struct {
	lines  []int
	pixels [][]float64
	values [][]float64
}

func calibrationTable(ann *model.Annotation) sparseTable {
	t := sparseTable{}
	for _, cv := range ann.Calibration {
		t.lines = append(t.lines, cv.Line)
		t.pixels = append(t.pixels, intsToFloats(cv.Pixel))
		t.values = append(t.values, cv.SigmaNought)
	}
	return t
}

func noiseRangeTable(ann *model.Annotation) sparseTable {
	t := sparseTable{}
	for _, nv := range ann.NoiseRange {
		t.lines = append(t.lines, nv.Line)
		t.pixels = append(t.pixels, intsToFloats(nv.Pixel))
		t.values = append(t.values, nv.NoiseLUT)
	}
	return t
}

// rowFunc interpolates one masked sparse record onto the dense pixel axis
// xBins, or returns nil to skip the record. pixel/value hold only the
// samples that survived validity masking.
type rowFunc func(line int, pixel, value, xBins []float64) []float64

// splineRow is the plain reconstruction row sampler.
func splineRow(_ int, pixel, value, xBins []float64) []float64 {
	ip, err := NewSpline1D(pixel, value)
	if err != nil {
		return nil
	}
	out := make([]float64, len(xBins))
	for i, x := range xBins {
		out[i] = ip.At(x)
	}
	return out
}

// expandTable reconstructs a dense raster from a sparse table: a 1D pass per
// record onto the subswath's dense pixel axis, then a bilinear pass across
// record lines. Regions with no usable records stay NaN.
func (s *Scene) expandTable(tab sparseTable, validValue func(float64) bool, row rowFunc) *Raster {
	target := NewNaNRaster(s.Ann.Shape.Lines, s.Ann.Shape.Pixels)
	swathIndex := s.SubswathIndexMap()

	for i := range s.Ann.Subswaths {
		sw := &s.Ann.Subswaths[i]
		firstLine, lastLine := sw.LineRange()
		firstSample, lastSample := sw.SampleRange()
		xBins := make([]float64, lastSample-firstSample+1)
		for j := range xBins {
			xBins[j] = float64(firstSample + j)
		}

		var rowLines []float64
		var rows [][]float64
		for ri, line := range tab.lines {
			if line < firstLine || line > lastLine {
				continue
			}
			pixel, value := maskRecord(swathIndex, i+1, line, tab.pixels[ri], tab.values[ri], validValue)
			if len(pixel) == 0 {
				continue
			}
			dense := row(line, pixel, value, xBins)
			if dense == nil || !allFinite(dense) {
				continue
			}
			rowLines = append(rowLines, float64(line))
			rows = append(rows, dense)
		}

		switch {
		case len(rows) == 0:
			// No usable records: the whole subswath stays NaN and callers
			// must treat it as "no data".
			s.log.Warn("no valid sparse records for subswath", logging.String("subswath", sw.Name))
			s.metrics.RecordNoDataSubswath()
			continue
		case len(rows) == 1:
			// A single record cannot anchor an azimuth interpolation; hold
			// it constant along track.
			fillSubswathRows(target, swathIndex, i+1, firstLine, lastLine, func(line, pixel int) float64 {
				return rows[0][pixel-firstSample]
			})
		default:
			grid, err := NewGrid2D(rowLines, xBins, rows)
			if err != nil {
				s.log.Warn("degenerate record geometry for subswath",
					logging.String("subswath", sw.Name), logging.Err(err))
				continue
			}
			fillSubswathRows(target, swathIndex, i+1, firstLine, lastLine, func(line, pixel int) float64 {
				return grid.At(float64(line), float64(pixel))
			})
		}
	}
	return target
}

// maskRecord drops samples that fall outside the subswath, fail the value
// predicate, or repeat the previous pixel position.
func maskRecord(swathIndex *Raster, wantIdx int, line int, pixel, value []float64, validValue func(float64) bool) (px, vv []float64) {
	if line < 0 || line >= swathIndex.Lines || len(pixel) != len(value) {
		return nil, nil
	}
	row := swathIndex.Row(line)
	for k := range pixel {
		p := int(pixel[k])
		if p < 0 || p >= swathIndex.Pixels || row[p] != float64(wantIdx) {
			continue
		}
		if validValue != nil && !validValue(value[k]) {
			continue
		}
		if n := len(px); n > 0 && pixel[k] <= px[n-1] {
			continue
		}
		px = append(px, pixel[k])
		vv = append(vv, value[k])
	}
	return px, vv
}

// fillSubswathRows writes at into every pixel of the subswath between
// firstLine and lastLine.
func fillSubswathRows(target, swathIndex *Raster, wantIdx, firstLine, lastLine int, at func(line, pixel int) float64) {
	if firstLine < 0 {
		firstLine = 0
	}
	if lastLine >= target.Lines {
		lastLine = target.Lines - 1
	}
	want := float64(wantIdx)
	for line := firstLine; line <= lastLine; line++ {
		idxRow := swathIndex.Row(line)
		tgtRow := target.Row(line)
		for pixel, idx := range idxRow {
			if idx == want {
				tgtRow[pixel] = at(line, pixel)
			}
		}
	}
}

// CalibrationMap reconstructs the dense sigma-nought calibration raster from
// the sparse calibration vectors. Memoized; callers must not mutate it.
func (s *Scene) CalibrationMap() *Raster {
	if s.calibration == nil {
		s.calibration = s.expandTable(calibrationTable(s.Ann), positive, splineRow)
	}
	return s.calibration
}

// NoiseRangeMap reconstructs the dense range-noise raster. When align is
// true each record is first shifted to maximize correlation with the
// expected antenna gain signature (see lutalign.go).
func (s *Scene) NoiseRangeMap(align bool) *Raster {
	row := splineRow
	if align {
		if ar, err := s.alignedNoiseRow(); err != nil {
			s.log.Warn("lut alignment unavailable, falling back to plain reconstruction", logging.Err(err))
		} else {
			row = ar
		}
	}
	noise := s.expandTable(noiseRangeTable(s.Ann), positive, row)
	s.applyAzimuthNoise(noise)
	return noise
}

// applyAzimuthNoise multiplies the per-subswath azimuth noise LUT blocks
// into the range-noise raster. Blocks with a single LUT sample scale their
// whole rectangle uniformly.
func (s *Scene) applyAzimuthNoise(noise *Raster) {
	for i := range s.Ann.Subswaths {
		for _, blk := range s.Ann.Subswaths[i].NoiseAzimuthBlocks {
			gain := func(line int) float64 { return blk.NoiseLUT[0] }
			if len(blk.Line) > 1 {
				ip, err := NewLinear1D(intsToFloats(blk.Line), blk.NoiseLUT)
				if err != nil {
					continue
				}
				gain = func(line int) float64 { return ip.At(float64(line)) }
			}
			firstLine := max(blk.FirstAzimuthLine, 0)
			lastLine := min(blk.LastAzimuthLine, noise.Lines-1)
			firstSample := max(blk.FirstRangeSample, 0)
			lastSample := min(blk.LastRangeSample, noise.Pixels-1)
			for line := firstLine; line <= lastLine; line++ {
				g := gain(line)
				row := noise.Row(line)
				for pixel := firstSample; pixel <= lastSample; pixel++ {
					row[pixel] *= g
				}
			}
		}
	}
}

func positive(v float64) bool { return v > 0 }

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func intsToFloats(a []int) []float64 {
	out := make([]float64, len(a))
	for i, v := range a {
		out[i] = float64(v)
	}
	return out
}
