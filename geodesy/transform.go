package geodesy

import "math"

// poleRadius is the distance from the polar axis under which longitude is
// undefined and forced to zero.
const poleRadius = 1e-10

// degenerateRadius guards the rotation coefficients against a position at or
// near the geocenter (or the polar axis for the east vector).
const degenerateRadius = 1e-5

// EcefToLlh converts an ECEF position to geodetic coordinates using Bowring's
// closed form.
func EcefToLlh(pos ECEF) LLH {
	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)

	if p < poleRadius {
		lat := math.Pi / 2
		if pos.Z < 0 {
			lat = -lat
		}
		return LLH{Lat: lat, Lon: 0, Height: math.Abs(pos.Z) - SemiMinorAxis}
	}

	theta := math.Atan2(pos.Z*SemiMajorAxis, p*SemiMinorAxis)
	sinTheta, cosTheta := math.Sincos(theta)

	lat := math.Atan2(
		pos.Z+E2Sqr*SemiMinorAxis*sinTheta*sinTheta*sinTheta,
		p-E1Sqr*SemiMajorAxis*cosTheta*cosTheta*cosTheta,
	)
	lon := math.Atan2(pos.Y, pos.X)

	sinLat := math.Sin(lat)
	n := SemiMajorAxis / math.Sqrt(1-E1Sqr*sinLat*sinLat)

	return LLH{Lat: lat, Lon: lon, Height: p/math.Cos(lat) - n}
}

// LlhToEcef converts geodetic coordinates to an ECEF position
func LlhToEcef(pos LLH) ECEF {
	sinLat, cosLat := math.Sincos(pos.Lat)
	sinLon, cosLon := math.Sincos(pos.Lon)
	n := SemiMajorAxis / math.Sqrt(1-E1Sqr*sinLat*sinLat)

	return ECEF{
		X: (n + pos.Height) * cosLat * cosLon,
		Y: (n + pos.Height) * cosLat * sinLon,
		Z: (n*(1-E1Sqr) + pos.Height) * sinLat,
	}
}

// RotationCoefficients holds the non-trivial terms of the ECEF to ENU
// rotation. The east row has no z term.
type RotationCoefficients struct {
	X2E, Y2E      float64
	X2N, Y2N, Z2N float64
	X2U, Y2U, Z2U float64
}

// Identity returns coefficients for a receiver on the equator at zero longitude,
// used before the first position is known.
func Identity() RotationCoefficients {
	return RotationCoefficients{Y2E: 1, Z2N: 1, X2U: 1}
}

// CalcConvMatrix computes the ECEF to ENU rotation for a receiver at pos
// without trigonometric calls, using the geocentric direction of pos for the
// up axis. If pos is too close to the geocenter, prev is returned unchanged
// with ok set to false.
func CalcConvMatrix(pos ECEF, prev RotationCoefficients) (rc RotationCoefficients, ok bool) {
	p := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y)
	r := math.Sqrt(p*p + pos.Z*pos.Z)

	if r < degenerateRadius {
		return prev, false
	}

	if p < degenerateRadius {
		rc.X2E = 0
		rc.Y2E = 1
	} else {
		rc.X2E = -pos.Y / p
		rc.Y2E = pos.X / p
	}

	rc.X2U = pos.X / r
	rc.Y2U = pos.Y / r
	rc.Z2U = pos.Z / r

	rc.X2N = -rc.Y2E * rc.Z2U
	rc.Y2N = rc.X2E * rc.Z2U
	rc.Z2N = p / r

	return rc, true
}

// LocalVelocity is a velocity resolved in the local frame. Speed is the
// horizontal ground speed (m/s) and Course is radians clockwise from north in
// [0, 2π).
type LocalVelocity struct {
	East   float64 `json:"east"`
	North  float64 `json:"north"`
	Up     float64 `json:"up"`
	Speed  float64 `json:"speed"`
	Course float64 `json:"course"`
}

// VelocityToLocal rotates an ECEF velocity into east/north/up and derives
// ground speed and course.
func VelocityToLocal(vel ECEF, rc RotationCoefficients) LocalVelocity {
	var lv LocalVelocity

	lv.East = rc.X2E*vel.X + rc.Y2E*vel.Y
	lv.North = rc.X2N*vel.X + rc.Y2N*vel.Y + rc.Z2N*vel.Z
	lv.Up = rc.X2U*vel.X + rc.Y2U*vel.Y + rc.Z2U*vel.Z

	lv.Speed = math.Hypot(lv.East, lv.North)
	lv.Course = math.Atan2(lv.East, lv.North)
	if lv.Course < 0 {
		lv.Course += 2 * math.Pi
	}
	// atan2 of a tiny negative east component can round up to exactly 2π
	if lv.Course >= 2*math.Pi {
		lv.Course = 0
	}

	return lv
}
