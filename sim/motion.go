package sim

import (
	"math"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
)

const (
	earthRadius = 6371000.0 // mean radius in meters
	knotsToMS   = 0.514444
)

// updateSpeedAndCourse applies jitter to speed and course
func (s *Simulator) updateSpeedAndCourse() {
	var speedVariation, courseVariation float64

	switch j := s.config.Jitter; {
	case j == 0.0:
	case j < 0.2:
		speedVariation = 0.05
		courseVariation = 2.0
	case j < 0.7:
		speedVariation = 0.10 + (j-0.2)*0.40
		courseVariation = 5.0 + (j-0.2)*20.0
	default:
		speedVariation = 0.30 + (j-0.7)*0.67
		courseVariation = 15.0 + (j-0.7)*50.0
	}

	speedDelta := (s.rng.Float64() - 0.5) * 2 * s.config.Speed * speedVariation
	s.currentSpeed = math.Max(0, s.config.Speed+speedDelta)

	courseDelta := (s.rng.Float64() - 0.5) * 2 * courseVariation
	s.currentCourse = normalizeCourse(s.config.Course + courseDelta)
}

// updatePosition moves along the current course for dt seconds, keeping the
// position within the configured radius
func (s *Simulator) updatePosition(dt float64) {
	if dt <= 0 {
		return
	}

	distance := s.currentSpeed * knotsToMS * dt
	newLat, newLon := destination(s.currentLat, s.currentLon, distance, s.currentCourse)

	if s.distanceFromCenter(newLat, newLon) > s.config.Radius {
		if s.config.Jitter > 0.5 {
			// bounce off the boundary
			s.currentCourse = normalizeCourse(s.currentCourse + (s.rng.Float64()-0.5)*60.0)
			newLat, newLon = destination(s.currentLat, s.currentLon, distance, s.currentCourse)
		} else {
			bearing := initialBearing(s.config.Latitude, s.config.Longitude, newLat, newLon)
			newLat, newLon = destination(s.config.Latitude, s.config.Longitude, s.config.Radius, bearing)
		}
	}

	s.currentLat = newLat
	s.currentLon = newLon
}

// updateAltitude applies altitude jitter within -100/+500 m of the start
func (s *Simulator) updateAltitude() {
	if s.config.AltitudeJitter <= 0 {
		return
	}

	maxChange := 1.0 + s.config.AltitudeJitter*20.0
	alt := s.currentAlt + (s.rng.Float64()-0.5)*2*maxChange

	minAlt := math.Max(-50.0, s.config.Altitude-100.0)
	maxAlt := s.config.Altitude + 500.0
	s.currentAlt = math.Min(maxAlt, math.Max(minAlt, alt))
}

func (s *Simulator) distanceFromCenter(lat, lon float64) float64 {
	return distance(s.config.Latitude, s.config.Longitude, lat, lon)
}

// distance is the great circle distance in meters between two points given
// in degrees
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := geodesy.FromDegrees(lat1, lon1, 0)
	b := geodesy.FromDegrees(lat2, lon2, 0)
	return a.AngleTo(b).Radians() * earthRadius
}

// destination returns the point reached from lat, lon (degrees) after
// travelling distance meters on the given bearing over a spherical Earth
func destination(lat, lon, distance, bearing float64) (float64, float64) {
	latRad := lat * degToRad
	lonRad := lon * degToRad
	bearingRad := bearing * degToRad
	angular := distance / earthRadius

	sinLat, cosLat := math.Sincos(latRad)
	sinAng, cosAng := math.Sincos(angular)

	newLat := math.Asin(sinLat*cosAng + cosLat*sinAng*math.Cos(bearingRad))
	newLon := lonRad + math.Atan2(math.Sin(bearingRad)*sinAng*cosLat, cosAng-sinLat*math.Sin(newLat))

	newLonDeg := math.Mod(newLon/degToRad+540, 360) - 180
	return newLat / degToRad, newLonDeg
}

// initialBearing returns the bearing in degrees [0, 360) from point 1 to point 2
func initialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	deltaLon := (lon2 - lon1) * degToRad

	y := math.Sin(deltaLon) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return normalizeCourse(math.Atan2(y, x) / degToRad)
}

func normalizeCourse(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
