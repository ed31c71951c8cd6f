package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/sar-denoise/model"
)

func cubicOrbitVectors(origin time.Time) []model.OrbitStateVector {
	// Position components are cubic in time, so the degree-3 fit must be
	// exact at any query point.
	f := func(t float64) float64 { return 1e6 + 5e3*t - 12*t*t + 0.5*t*t*t }
	df := func(t float64) float64 { return 5e3 - 24*t + 1.5*t*t }
	var svs []model.OrbitStateVector
	for k := -4; k <= 4; k++ {
		ts := float64(k) * 10
		svs = append(svs, model.OrbitStateVector{
			Time:     origin.Add(time.Duration(ts * float64(time.Second))),
			Position: [3]float64{f(ts), -f(ts), 2 * f(ts)},
			Velocity: [3]float64{df(ts), -df(ts), 2 * df(ts)},
		})
	}
	return svs
}

func TestOrbitInterpolatorExactOnCubic(t *testing.T) {
	origin := time.Date(2018, 3, 1, 10, 0, 0, 0, time.UTC)
	o, err := NewOrbitInterpolatorFromVectors(cubicOrbitVectors(origin), origin)
	if err != nil {
		t.Fatalf("NewOrbitInterpolatorFromVectors: %v", err)
	}
	f := func(t float64) float64 { return 1e6 + 5e3*t - 12*t*t + 0.5*t*t*t }
	for _, q := range []float64{-35, -7.2, 0, 3.3, 18, 39} {
		pos, _ := o.PositionVelocityAt(q)
		want := f(q)
		if math.Abs(pos.X-want) > 1e-4 {
			t.Fatalf("position X at t=%v: %v, want %v", q, pos.X, want)
		}
		if math.Abs(pos.Y+want) > 1e-4 {
			t.Fatalf("position Y at t=%v: %v, want %v", q, pos.Y, -want)
		}
	}
}

func TestOrbitInterpolatorVelocity(t *testing.T) {
	origin := time.Date(2018, 3, 1, 10, 0, 0, 0, time.UTC)
	o, err := NewOrbitInterpolatorFromVectors(cubicOrbitVectors(origin), origin)
	if err != nil {
		t.Fatalf("NewOrbitInterpolatorFromVectors: %v", err)
	}
	df := func(t float64) float64 { return 5e3 - 24*t + 1.5*t*t }
	_, vel := o.PositionVelocityAt(12.5)
	if want := df(12.5); math.Abs(vel.X-want) > 1e-6 {
		t.Fatalf("velocity X = %v, want %v", vel.X, want)
	}
}

func TestOrbitInterpolatorRequiresFourVectors(t *testing.T) {
	origin := time.Now().UTC()
	svs := cubicOrbitVectors(origin)[:3]
	if _, err := NewOrbitInterpolatorFromVectors(svs, origin); !errors.Is(err, ErrInsufficientOrbitData) {
		t.Fatalf("expected ErrInsufficientOrbitData, got %v", err)
	}
}

func TestOrbitInterpolatorRejectsUnorderedVectors(t *testing.T) {
	origin := time.Date(2018, 3, 1, 10, 0, 0, 0, time.UTC)
	svs := cubicOrbitVectors(origin)
	svs[2], svs[3] = svs[3], svs[2]
	if _, err := NewOrbitInterpolatorFromVectors(svs, origin); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestSceneOrbitSpeed(t *testing.T) {
	s := newTestScene(t)
	o, err := s.Orbit()
	if err != nil {
		t.Fatalf("Orbit: %v", err)
	}
	// The fixture orbit is circular at 7600 m/s.
	if got := o.SpeedAt(0); math.Abs(got-7600) > 1 {
		t.Fatalf("speed = %v, want about 7600", got)
	}
}

func TestStateVectorsFromTLE(t *testing.T) {
	// ISS sample TLE; exact values belong to the SGP4 library, we check
	// plausibility of the derived Earth-fixed states.
	tle1 := "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	tle2 := "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
	base := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(10 * time.Second), base.Add(20 * time.Second)}

	svs := StateVectorsFromTLE(tle1, tle2, times)
	if len(svs) != len(times) {
		t.Fatalf("got %d state vectors, want %d", len(svs), len(times))
	}
	for i, sv := range svs {
		r := Vec3{sv.Position[0], sv.Position[1], sv.Position[2]}.Norm()
		if r < 6.6e6 || r > 7.0e6 {
			t.Fatalf("vector %d: radius %v m outside LEO range", i, r)
		}
		v := Vec3{sv.Velocity[0], sv.Velocity[1], sv.Velocity[2]}.Norm()
		if v < 6e3 || v > 9e3 {
			t.Fatalf("vector %d: speed %v m/s implausible", i, v)
		}
	}
	if svs[0].Position == svs[1].Position {
		t.Fatal("positions did not change over time")
	}

	// The synthesized vectors must feed the interpolator directly.
	if _, err := NewOrbitInterpolatorFromVectors(
		StateVectorsFromTLE(tle1, tle2, []time.Time{
			base, base.Add(10 * time.Second), base.Add(20 * time.Second), base.Add(30 * time.Second),
		}), base); err != nil {
		t.Fatalf("interpolator from TLE vectors: %v", err)
	}
}
