// Package geodesy converts receiver solutions between the WGS84 earth-centered
// frame, geodetic coordinates and the local east/north/up frame.
package geodesy

import "math"

// WGS84 ellipsoid parameters
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1.0 / 298.257223563
	SemiMinorAxis = SemiMajorAxis * (1 - Flattening)

	// E1Sqr is the first eccentricity squared, E2Sqr the second.
	E1Sqr = Flattening * (2 - Flattening)
	E2Sqr = E1Sqr / (1 - E1Sqr)
)

// ECEF is a vector in the earth-centered earth-fixed frame (meters or m/s)
type ECEF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of the vector
func (v ECEF) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// State is a receiver position and velocity in ECEF
type State struct {
	Position ECEF `json:"position"`
	Velocity ECEF `json:"velocity"`
}

// LLH is a geodetic position. Lat and Lon are radians, Height is meters
// above the ellipsoid.
type LLH struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Height float64 `json:"height"`
}

// FromDegrees builds an LLH from latitude and longitude in degrees
func FromDegrees(lat, lon, height float64) LLH {
	return LLH{Lat: lat * math.Pi / 180, Lon: lon * math.Pi / 180, Height: height}
}

// Degrees returns latitude and longitude in degrees
func (p LLH) Degrees() (lat, lon float64) {
	return p.Lat * 180 / math.Pi, p.Lon * 180 / math.Pi
}
