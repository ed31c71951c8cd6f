package core

import (
	"context"
	"fmt"
	"math"

	"github.com/signalsfoundry/sar-denoise/internal/logging"
	"github.com/signalsfoundry/sar-denoise/model"
)

// fitAverageLines is the azimuth block height over which profiles are
// averaged before fitting.
const fitAverageLines = 1000

// fitterCrop is the number of edge pixels (about 1 km) excluded on each
// side of a subswath before fitting.
var fitterCrop = map[string]int{"IW": 100, "EW": 25}

// FitCoefficients estimates per-subswath noise scaling factors and
// interswath balancing offsets from one scene. Scaling factors are the
// correlation-weighted average of the per-block fits; balancing offsets are
// the plain average. The extra scaling curves require aggregation over many
// scenes and are left identity here.
func (d *Denoiser) FitCoefficients(ctx context.Context, ann *model.Annotation, dn *Raster) (model.CoefficientSet, error) {
	_, span := d.tracer.Start(ctx, "denoise.fit_coefficients")
	defer span.End()

	set := model.CoefficientSet{
		Platform:   ann.Platform,
		IPFVersion: ann.IPFVersion,
		Subswaths:  make(map[string]model.SubswathCoefficients, len(ann.Subswaths)),
	}
	scene, err := NewScene(ann, d.log)
	if err != nil {
		return set, err
	}
	scene.SetMetrics(d.metrics)

	crop, ok := fitterCrop[ann.Mode]
	if !ok {
		return set, fmt.Errorf("%w: unknown mode %q", ErrInvalidDimension, ann.Mode)
	}

	sigma0 := d.rawSigma0(ctx, scene, dn)
	nesz := d.rawNESZ(ctx, scene, true)
	if ann.IPFVersion >= scallopingVersionMin && ann.IPFVersion < scallopingVersionMax {
		gain, err := scene.ScallopingGainMap()
		if err != nil {
			return set, fmt.Errorf("scalloping gain: %w", err)
		}
		for i := range nesz.Data {
			nesz.Data[i] *= gain.Data[i]
		}
	}
	swathIndex := scene.SubswathIndexMap()

	blocks := coveredBlocks(swathIndex, fitAverageLines)
	if len(blocks) == 0 {
		return set, fmt.Errorf("%w: no fully covered line blocks", ErrNoValidSamples)
	}

	// Pass 1: scaling factors.
	factors := make([]float64, len(ann.Subswaths))
	for i := range ann.Subswaths {
		var num, den float64
		for _, blk := range blocks {
			px, s0, n0, _ := blockProfiles(sigma0, nesz, nesz, swathIndex, i+1, blk[0], blk[1], crop)
			if len(px) < 3 {
				continue
			}
			fit, err := FitNoiseScaling(px, s0, n0)
			if err != nil {
				continue
			}
			w := math.Max(fit.Correlation, 0)
			num += fit.ScalingFactor * w
			den += w
		}
		if den == 0 {
			d.log.Warn("scaling fit failed, keeping factor at one",
				logging.String("subswath", ann.Subswaths[i].Name))
			factors[i] = 1
			continue
		}
		factors[i] = num / den
	}

	// Pass 2: balancing offsets against the scaled noise field.
	scaled := nesz.Clone()
	for i := range ann.Subswaths {
		want := float64(i + 1)
		for j, idx := range swathIndex.Data {
			if idx == want {
				scaled.Data[j] *= factors[i]
			}
		}
	}
	offsetSum := make([]float64, len(ann.Subswaths))
	var offsetBlocks float64
	for _, blk := range blocks {
		bb := make([]BalancingBlock, 0, len(ann.Subswaths))
		complete := true
		for i := range ann.Subswaths {
			px, s0, n0, rn0 := blockProfiles(sigma0, scaled, nesz, swathIndex, i+1, blk[0], blk[1], crop)
			if len(px) < 3 {
				complete = false
				break
			}
			_, lastSample := ann.Subswaths[i].SampleRange()
			bb = append(bb, BalancingBlock{
				Pixel:       px,
				Sigma0:      s0,
				ScaledNoise: n0,
				RawNoise:    rn0,
				LastSample:  float64(lastSample),
			})
		}
		if !complete {
			continue
		}
		offsets, err := FitPowerBalancing(bb)
		if err != nil {
			continue
		}
		for i, o := range offsets {
			offsetSum[i] += o
		}
		offsetBlocks++
	}

	for i := range ann.Subswaths {
		sc := model.SubswathCoefficients{ScalingFactor: factors[i]}
		if offsetBlocks > 0 {
			sc.BalancingOffset = offsetSum[i] / offsetBlocks
		}
		set.Subswaths[ann.Subswaths[i].Name] = sc
	}
	return set, nil
}

// coveredBlocks splits the image into fixed-height line blocks over the
// contiguous region where every pixel belongs to a subswath.
func coveredBlocks(swathIndex *Raster, height int) [][2]int {
	first, last := -1, -1
	for line := 0; line < swathIndex.Lines; line++ {
		covered := true
		for _, idx := range swathIndex.Row(line) {
			if idx == 0 {
				covered = false
				break
			}
		}
		if covered {
			if first < 0 {
				first = line
			}
			last = line
		}
	}
	var blocks [][2]int
	if first < 0 {
		return blocks
	}
	for lo := first; lo+height <= last+1; lo += height {
		blocks = append(blocks, [2]int{lo, lo + height})
	}
	return blocks
}

// blockProfiles averages sigma0, noise, and rawNoise along azimuth within
// [loLine, hiLine) over the pixels of one subswath, keeping only pixels
// where the half-subtracted signal stays positive. crop pixels are dropped
// from each side. Returned slices are parallel; pixel positions are image
// coordinates.
func blockProfiles(sigma0, noise, rawNoise, swathIndex *Raster, wantIdx, loLine, hiLine, crop int) (px, s0, n0, rn0 []float64) {
	want := float64(wantIdx)
	type acc struct {
		s0, n0, rn0 float64
		count       float64
	}
	cols := make([]acc, sigma0.Pixels)
	for line := loLine; line < hiLine && line < sigma0.Lines; line++ {
		idxRow := swathIndex.Row(line)
		s0Row := sigma0.Row(line)
		n0Row := noise.Row(line)
		rn0Row := rawNoise.Row(line)
		for pixel, idx := range idxRow {
			if idx != want {
				continue
			}
			if math.IsNaN(s0Row[pixel]) || math.IsNaN(n0Row[pixel]) || math.IsNaN(rn0Row[pixel]) {
				continue
			}
			cols[pixel].s0 += s0Row[pixel]
			cols[pixel].n0 += n0Row[pixel]
			cols[pixel].rn0 += rn0Row[pixel]
			cols[pixel].count++
		}
	}
	var valid []int
	for pixel, c := range cols {
		if c.count == 0 {
			continue
		}
		// Exclude pixels already dominated by noise.
		if (c.s0-c.rn0/2)/c.count <= 0 {
			continue
		}
		valid = append(valid, pixel)
	}
	if len(valid) <= 2*crop {
		return nil, nil, nil, nil
	}
	valid = valid[crop : len(valid)-crop]
	for _, pixel := range valid {
		c := cols[pixel]
		px = append(px, float64(pixel))
		s0 = append(s0, c.s0/c.count)
		n0 = append(n0, c.n0/c.count)
		rn0 = append(rn0, c.rn0/c.count)
	}
	return px, s0, n0, rn0
}
