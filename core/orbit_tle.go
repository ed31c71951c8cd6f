package core

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/sar-denoise/model"
)

// StateVectorsFromTLE propagates a two-line element set with SGP4 and returns
// Earth-fixed state vectors at the given times. It serves products whose
// annotation lacks a dense orbit list, and the reference-scene fixture
// generators used when fitting coefficients.
//
// go-satellite works in kilometres; state vectors are metres.
func StateVectorsFromTLE(line1, line2 string, times []time.Time) []model.OrbitStateVector {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	out := make([]model.OrbitStateVector, 0, len(times))
	for _, t := range times {
		pos := ecefPositionAt(sat, t)
		// Velocity from a symmetric finite difference in the Earth-fixed
		// frame, so the Earth-rotation term is included. Propagate works at
		// whole-second resolution, hence the one-second step.
		const dt = time.Second
		before := ecefPositionAt(sat, t.Add(-dt))
		after := ecefPositionAt(sat, t.Add(dt))
		vel := after.Sub(before).Scale(1 / (2 * dt.Seconds()))
		out = append(out, model.OrbitStateVector{
			Time:     t,
			Position: [3]float64{pos.X, pos.Y, pos.Z},
			Velocity: [3]float64{vel.X, vel.Y, vel.Z},
		})
	}
	return out
}

func ecefPositionAt(sat satellite.Satellite, t time.Time) Vec3 {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)
	const kmToM = 1000.0
	return Vec3{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}
}
