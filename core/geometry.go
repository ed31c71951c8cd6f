package core

import "math"

// WGS-84 ellipsoid parameters used for slant-range geometry (metres).
const (
	wgs84SemiMajor  = 6378137.0
	wgs84Flattening = 1.0 / 298.257223563
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// Vec3 is an Earth-fixed Cartesian vector in metres (or m/s for velocities).
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Scale returns the vector multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Unit returns the vector normalized to unit length. The zero vector is
// returned unchanged.
func (v Vec3) Unit() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// SlantRangeToTarget returns the distance from the satellite position along
// lookVec to the WGS-84 ellipsoid inflated by terrainHeight metres. The near
// intersection root is returned; NaN means the ray misses the ellipsoid.
func SlantRangeToTarget(satPos, lookVec Vec3, terrainHeight float64) float64 {
	a := wgs84SemiMajor + terrainHeight
	b := wgs84SemiMajor*(1-wgs84Flattening) + terrainHeight
	epsilon := (a*a - b*b) / (b * b)

	denom := 1 + epsilon*lookVec.Z*lookVec.Z
	f := (satPos.Dot(lookVec) + epsilon*satPos.Z*lookVec.Z) / denom
	g := (satPos.Dot(satPos) - a*a + epsilon*satPos.Z*satPos.Z) / denom
	return -f - math.Sqrt(f*f-g)
}

// PlanarRotation rotates inputVec about rotAxis by rotAngle degrees
// (Rodrigues rotation).
func PlanarRotation(rotAxis, inputVec Vec3, rotAngle float64) Vec3 {
	u := rotAxis.Unit()
	sinA := math.Sin(rotAngle * math.Pi / 180)
	cosA := math.Cos(rotAngle * math.Pi / 180)
	oneMinus := 1 - cosA

	return Vec3{
		X: (oneMinus*u.X*u.X+cosA)*inputVec.X +
			(oneMinus*u.X*u.Y-sinA*u.Z)*inputVec.Y +
			(oneMinus*u.X*u.Z+sinA*u.Y)*inputVec.Z,
		Y: (oneMinus*u.X*u.Y+sinA*u.Z)*inputVec.X +
			(oneMinus*u.Y*u.Y+cosA)*inputVec.Y +
			(oneMinus*u.Y*u.Z-sinA*u.X)*inputVec.Z,
		Z: (oneMinus*u.X*u.Z-sinA*u.Y)*inputVec.X +
			(oneMinus*u.Y*u.Z+sinA*u.X)*inputVec.Y +
			(oneMinus*u.Z*u.Z+cosA)*inputVec.Z,
	}
}
