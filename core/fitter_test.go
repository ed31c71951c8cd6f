package core

import (
	"errors"
	"math"
	"testing"
)

func TestGoldenMinimize(t *testing.T) {
	f := func(x float64) float64 { return (x - 1.7) * (x - 1.7) }
	got := goldenMinimize(f, 0, 3, 1e-6)
	if math.Abs(got-1.7) > 1e-5 {
		t.Fatalf("minimum at %v, want 1.7", got)
	}
}

func TestFitNoiseScalingRecoversFactor(t *testing.T) {
	const k = 1.3
	n := 100
	pixel := make([]float64, n)
	noise := make([]float64, n)
	sigma0 := make([]float64, n)
	for i := 0; i < n; i++ {
		p := float64(i)
		pixel[i] = p
		// A bumped noise profile; after subtracting k times it, sigma0 is
		// exactly linear in pixel, so the weighted misfit vanishes at k.
		d := (p - 50) / 20
		noise[i] = 2 + math.Exp(-d*d)
		sigma0[i] = k*noise[i] + 0.5 + 0.001*p
	}
	fit, err := FitNoiseScaling(pixel, sigma0, noise)
	if err != nil {
		t.Fatalf("FitNoiseScaling: %v", err)
	}
	if math.Abs(fit.ScalingFactor-k) > 1e-3 {
		t.Fatalf("scaling factor = %v, want %v", fit.ScalingFactor, k)
	}
	if fit.Correlation < 0.9 {
		t.Fatalf("correlation = %v, want > 0.9", fit.Correlation)
	}
	if fit.Residual > 1e-6 {
		t.Fatalf("residual = %v, want near zero at the true factor", fit.Residual)
	}
}

func TestFitNoiseScalingRejectsBadProfiles(t *testing.T) {
	if _, err := FitNoiseScaling([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for short profile, got %v", err)
	}
	if _, err := FitNoiseScaling([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 2}); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for mismatched lengths, got %v", err)
	}
	flat := []float64{5, 5, 5, 5}
	if _, err := FitNoiseScaling([]float64{0, 1, 2, 3}, flat, flat); !errors.Is(err, ErrNoValidSamples) {
		t.Fatalf("expected ErrNoValidSamples for flat noise, got %v", err)
	}
}

// balancingFixture builds two adjacent blocks whose signal-minus-noise
// residuals are flat at residualLeft and residualRight, with the raw noise
// displaced from the scaled noise by rawDelta in the second block.
func balancingFixture(residualLeft, residualRight, rawDelta float64) []BalancingBlock {
	mkBlock := func(first int, residual, delta float64) BalancingBlock {
		blk := BalancingBlock{LastSample: float64(first + 49)}
		for p := first; p < first+50; p++ {
			blk.Pixel = append(blk.Pixel, float64(p))
			blk.ScaledNoise = append(blk.ScaledNoise, 0.005)
			blk.Sigma0 = append(blk.Sigma0, 0.005+residual)
			blk.RawNoise = append(blk.RawNoise, 0.005+delta)
		}
		return blk
	}
	return []BalancingBlock{
		mkBlock(0, residualLeft, 0),
		mkBlock(50, residualRight, rawDelta),
	}
}

func TestFitPowerBalancingRecoversStep(t *testing.T) {
	// Residual step of 0.002 at the boundary; the raw noise already carries
	// the same displacement, so no bias correction applies.
	blocks := balancingFixture(0.01, 0.012, 0.002)
	offsets, err := FitPowerBalancing(blocks)
	if err != nil {
		t.Fatalf("FitPowerBalancing: %v", err)
	}
	if math.Abs(offsets[0]) > 1e-12 {
		t.Fatalf("first offset = %v, want 0", offsets[0])
	}
	if math.Abs(offsets[1]-0.002) > 1e-12 {
		t.Fatalf("second offset = %v, want 0.002", offsets[1])
	}
}

func TestFitPowerBalancingBiasCorrection(t *testing.T) {
	// Same step, but the raw noise matches the scaled noise: the cumulative
	// offsets would inflate total power, so the mean departure is removed.
	blocks := balancingFixture(0.01, 0.012, 0)
	offsets, err := FitPowerBalancing(blocks)
	if err != nil {
		t.Fatalf("FitPowerBalancing: %v", err)
	}
	if math.Abs(offsets[0]+0.002) > 1e-12 {
		t.Fatalf("first offset = %v, want -0.002", offsets[0])
	}
	if math.Abs(offsets[1]) > 1e-12 {
		t.Fatalf("second offset = %v, want 0", offsets[1])
	}
}

func TestFitPowerBalancingNeedsTwoBlocks(t *testing.T) {
	blocks := balancingFixture(0.01, 0.012, 0)
	if _, err := FitPowerBalancing(blocks[:1]); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for one block, got %v", err)
	}
}
