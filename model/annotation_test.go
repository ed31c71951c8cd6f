package model

import (
	"testing"
	"time"
)

func TestMidTimeAndRelSeconds(t *testing.T) {
	start := time.Date(2020, 5, 4, 12, 0, 0, 0, time.UTC)
	ann := &Annotation{SensingStart: start, SensingEnd: start.Add(30 * time.Second)}
	if got, want := ann.MidTime(), start.Add(15*time.Second); !got.Equal(want) {
		t.Fatalf("MidTime = %v, want %v", got, want)
	}
	if got := ann.RelSeconds(start); got != -15 {
		t.Fatalf("RelSeconds(start) = %v, want -15", got)
	}
	if got := ann.RelSeconds(start.Add(20 * time.Second)); got != 5 {
		t.Fatalf("RelSeconds(start+20s) = %v, want 5", got)
	}
}

func TestSubswathRanges(t *testing.T) {
	sw := Subswath{Segments: []SwathSegment{
		{FirstAzimuthLine: 10, LastAzimuthLine: 100, FirstRangeSample: 200, LastRangeSample: 400},
		{FirstAzimuthLine: 5, LastAzimuthLine: 80, FirstRangeSample: 210, LastRangeSample: 390},
		{FirstAzimuthLine: 50, LastAzimuthLine: 120, FirstRangeSample: 205, LastRangeSample: 410},
	}}
	if first, last := sw.LineRange(); first != 5 || last != 120 {
		t.Fatalf("LineRange = [%d, %d], want [5, 120]", first, last)
	}
	if first, last := sw.SampleRange(); first != 200 || last != 410 {
		t.Fatalf("SampleRange = [%d, %d], want [200, 410]", first, last)
	}
}

func TestExtraScalingCurveIdentity(t *testing.T) {
	if !(ExtraScalingCurve{}).Identity() {
		t.Fatal("empty curve is not identity")
	}
	flat := ExtraScalingCurve{SNR: []float64{0, 10}, Gain: []float64{1, 1}}
	if !flat.Identity() {
		t.Fatal("all-ones curve is not identity")
	}
	curve := ExtraScalingCurve{SNR: []float64{0, 10}, Gain: []float64{1, 1.2}}
	if curve.Identity() {
		t.Fatal("non-trivial curve reads as identity")
	}
}

func TestIdentityCoefficients(t *testing.T) {
	sc := IdentityCoefficients()
	if sc.ScalingFactor != 1 || sc.BalancingOffset != 0 || !sc.ExtraScaling.Identity() {
		t.Fatalf("identity coefficients = %+v", sc)
	}
}
