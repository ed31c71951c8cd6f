package core

import (
	"errors"
	"math"
	"testing"
)

func TestFocusedBurstLength(t *testing.T) {
	s := newTestScene(t)
	// 14500 input lines split into ten bursts at the annotated azimuth
	// frequency gives 1.3 s per focused burst.
	got, err := s.focusedBurstLength(0)
	if err != nil {
		t.Fatalf("focusedBurstLength: %v", err)
	}
	if math.Abs(got-1.3) > 1e-9 {
		t.Fatalf("burst length = %v, want 1.3", got)
	}
}

func TestFocusedBurstLengthUnknownMode(t *testing.T) {
	ann := newTestAnnotation()
	ann.Mode = "SM"
	s, err := NewScene(ann, nil)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	if _, err := s.focusedBurstLength(0); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension for unknown mode, got %v", err)
	}
}

func TestSubswathCenterSample(t *testing.T) {
	s := newTestScene(t)
	for i, want := range []int{50, 150, 250} {
		if got := s.subswathCenterSample(i); got != want {
			t.Fatalf("center sample of subswath %d = %d, want %d", i, got, want)
		}
	}
}

func TestAzimuthFmRateAt(t *testing.T) {
	s := newTestScene(t)
	// The fixture polynomial is constant, so any query returns it.
	got, err := s.azimuthFmRateAt(2.5, testSlantRangeTime(100))
	if err != nil {
		t.Fatalf("azimuthFmRateAt: %v", err)
	}
	if math.Abs(got+2340) > 1e-9 {
		t.Fatalf("FM rate = %v, want -2340", got)
	}
}

func TestAzimuthFmRateInterpolatesRecords(t *testing.T) {
	ann := newTestAnnotation()
	// Records sit at t=1 and t=4; distinct constants interpolate linearly.
	ann.AzimuthFmRate[0].Polynomial = [3]float64{-2000, 0, 0}
	ann.AzimuthFmRate[1].Polynomial = [3]float64{-3000, 0, 0}
	s, err := NewScene(ann, nil)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	// Records sit at relative times -1.95 and 1.05; query their midpoint.
	got, err := s.azimuthFmRateAt(-0.45, testSlantRangeTime(0))
	if err != nil {
		t.Fatalf("azimuthFmRateAt: %v", err)
	}
	if math.Abs(got+2500) > 1e-9 {
		t.Fatalf("FM rate at midpoint = %v, want -2500", got)
	}
}

func TestBurstStartTimes(t *testing.T) {
	s := newTestScene(t)
	// Pattern records for the first subswath land exactly on 1.3 s burst
	// boundaries, so the overlap correction is zero and the sequence is
	// extended by one burst to cover the last line. Times are relative to
	// the scene midpoint at 2.95 s.
	starts, err := s.burstStartTimes(0, 1.3, -2.95, 2.95)
	if err != nil {
		t.Fatalf("burstStartTimes: %v", err)
	}
	want := []float64{-2.95, -1.65, -0.35, 0.95, 2.25, 3.55}
	if len(starts) != len(want) {
		t.Fatalf("got %d burst starts, want %d", len(starts), len(want))
	}
	for i := range want {
		if math.Abs(starts[i]-want[i]) > 1e-9 {
			t.Fatalf("start %d = %v, want %v", i, starts[i], want[i])
		}
	}
}

func TestBurstStartTimesExtendsBothEnds(t *testing.T) {
	s := newTestScene(t)
	starts, err := s.burstStartTimes(0, 1.3, -4.0, 4.0)
	if err != nil {
		t.Fatalf("burstStartTimes: %v", err)
	}
	if starts[0] > -4.0 {
		t.Fatalf("first start %v does not reach -4.0", starts[0])
	}
	if starts[len(starts)-1] < 4.0 {
		t.Fatalf("last start %v does not reach 4.0", starts[len(starts)-1])
	}
}

func TestBurstCenter(t *testing.T) {
	starts := []float64{0, 1, 2, 3}
	cases := []struct{ t, want float64 }{
		{0.5, 0.5},
		{1.0, 1.5},
		{2.999, 2.5},
		{-0.2, 0.5}, // before the first start: first interval
		{3.5, 2.5},  // past the last start: final interval
	}
	for _, c := range cases {
		if got := burstCenter(starts, c.t); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("burstCenter(%v) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestScallopingGainMap(t *testing.T) {
	s := newTestScene(t)
	gain, err := s.ScallopingGainMap()
	if err != nil {
		t.Fatalf("ScallopingGainMap: %v", err)
	}

	// Scalloping is an azimuth pattern loss, so the compensation gain is at
	// least one everywhere and constant along range within a subswath.
	for line := 0; line < testLines; line++ {
		for _, pixel := range []int{5, 50, 95, 150, 250} {
			v := gain.At(line, pixel)
			if math.IsNaN(v) || v < 1 {
				t.Fatalf("gain at (%d,%d) = %v, want finite and >= 1", line, pixel, v)
			}
		}
		if a, b := gain.At(line, 10), gain.At(line, 90); a != b {
			t.Fatalf("gain varies along range at line %d: %v vs %v", line, a, b)
		}
	}

	// Bursts in the first subswath span 1.3 s starting at t=0: line 0 sits
	// at a burst edge, line 6 near the burst center.
	edge, center := gain.At(0, 50), gain.At(6, 50)
	if edge <= center {
		t.Fatalf("edge gain %v not above center gain %v", edge, center)
	}
	if edge < 1.0005 || edge > 1.01 {
		t.Fatalf("edge gain = %v, want a fraction of a dB", edge)
	}

	// Lines 16 and 23 are mirrored around the burst center at t=1.95; the
	// azimuth pattern is symmetric so their gains agree.
	g1, g2 := gain.At(16, 50), gain.At(23, 50)
	if math.Abs(g1-g2)/g1 > 1e-6 {
		t.Fatalf("mirrored lines disagree: %v vs %v", g1, g2)
	}
}
