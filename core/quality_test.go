package core

import (
	"errors"
	"math"
	"testing"
)

// rippleRaster alternates two nearby values along range so that both sides
// of every boundary share the same statistics.
func rippleRaster() *Raster {
	r := NewRaster(testLines, testPixels)
	for line := 0; line < testLines; line++ {
		row := r.Row(line)
		for pixel := range row {
			row[pixel] = 0.02 + 0.001*float64(pixel%2)
		}
	}
	return r
}

func TestRangeQualityMetricBalancedScene(t *testing.T) {
	s := newTestScene(t)
	out, err := s.RangeQualityMetric(rippleRaster())
	if err != nil {
		t.Fatalf("RangeQualityMetric: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d boundaries, want 2", len(out))
	}
	for _, bq := range out {
		if bq.Lines != testLines {
			t.Fatalf("boundary %s covered %d lines, want %d", bq.Subswath, bq.Lines, testLines)
		}
		if bq.Mean > 0.02 {
			t.Fatalf("boundary %s quality = %v, want near zero on balanced data", bq.Subswath, bq.Mean)
		}
	}
	if out[0].Subswath != "IW1" || out[1].Subswath != "IW2" {
		t.Fatalf("boundary names = %s, %s", out[0].Subswath, out[1].Subswath)
	}
}

func TestRangeQualityMetricDetectsStep(t *testing.T) {
	s := newTestScene(t)
	r := rippleRaster()
	// A residual power step past the first boundary.
	for line := 0; line < testLines; line++ {
		row := r.Row(line)
		for pixel := 100; pixel < testPixels; pixel++ {
			row[pixel] += 0.01
		}
	}
	out, err := s.RangeQualityMetric(r)
	if err != nil {
		t.Fatalf("RangeQualityMetric: %v", err)
	}
	if out[0].Mean < 1 {
		t.Fatalf("stepped boundary quality = %v, want well above 1", out[0].Mean)
	}
	if out[1].Mean >= out[0].Mean/10 {
		t.Fatalf("clean boundary quality %v not far below stepped %v", out[1].Mean, out[0].Mean)
	}
}

func TestRangeQualityMetricAllNaN(t *testing.T) {
	s := newTestScene(t)
	out, err := s.RangeQualityMetric(NewNaNRaster(testLines, testPixels))
	if err != nil {
		t.Fatalf("RangeQualityMetric: %v", err)
	}
	for _, bq := range out {
		if bq.Lines != 0 || bq.Mean != 0 {
			t.Fatalf("boundary %s on empty raster: mean %v over %d lines, want zeroes",
				bq.Subswath, bq.Mean, bq.Lines)
		}
	}
}

func TestRangeQualityMetricShapeMismatch(t *testing.T) {
	s := newTestScene(t)
	if _, err := s.RangeQualityMetric(NewRaster(testLines, testPixels+1)); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestNanMeanStd(t *testing.T) {
	mean, std := nanMeanStd([]float64{1, 2, 3, math.NaN(), math.Inf(1)})
	if math.Abs(mean-2) > 1e-12 {
		t.Fatalf("mean = %v, want 2", mean)
	}
	if want := math.Sqrt(2.0 / 3.0); math.Abs(std-want) > 1e-12 {
		t.Fatalf("std = %v, want %v", std, want)
	}
	if mean, _ := nanMeanStd(nil); !math.IsNaN(mean) {
		t.Fatalf("mean of empty window = %v, want NaN", mean)
	}
}
