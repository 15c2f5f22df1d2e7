package sim

import (
	"math"
	"math/rand"

	"github.com/Bucknalla/go-pvt-nmea/nmea"
)

const (
	minTrackedCN0 = 15.0 // dB-Hz
	minUsableCN0  = 25.0 // dB-Hz
	degToRad      = math.Pi / 180
)

// skySatellite is the simulated state of one satellite in degrees and dB-Hz
type skySatellite struct {
	elevation float64
	azimuth   float64
	cn0       float64
}

// sky holds the simulated satellites of every constellation, indexed by
// constellation order then by satellite index
type sky [nmea.NumConstellations][]skySatellite

func newSky(counts Sky, rng *rand.Rand) sky {
	var s sky
	for i, c := range nmea.Constellations {
		sats := make([]skySatellite, counts.Count(c))
		for j := range sats {
			sats[j] = skySatellite{
				elevation: float64(rng.Intn(80) + 5), // 5-85 degrees
				azimuth:   float64(rng.Intn(360)),
				cn0:       float64(rng.Intn(30) + 20), // 20-50 dB-Hz
			}
		}
		s[i] = sats
	}
	return s
}

// drift moves every satellite a small random step
func (s *sky) drift(rng *rand.Rand) {
	for i := range s {
		for j := range s[i] {
			sat := &s[i][j]
			sat.elevation = math.Min(85, math.Max(5, sat.elevation+float64(rng.Intn(3)-1)))
			sat.azimuth = math.Mod(sat.azimuth+float64(rng.Intn(3)-1)+360, 360)
			sat.cn0 = math.Min(55, math.Max(minTrackedCN0, sat.cn0+float64(rng.Intn(7)-3)))
		}
	}
}

// usable reports whether sat can contribute to a fix
func (sat skySatellite) usable(elevationMask float64) bool {
	return sat.elevation >= elevationMask && sat.cn0 >= minUsableCN0
}

// tracking builds the per-constellation tracking state. Before lock no
// ephemeris is available, so satellites are tracked without elevation and
// azimuth and none are in use. It also returns the lines of sight of the
// satellites in use.
func (s *sky) tracking(locked bool, elevationMask float64) ([nmea.NumConstellations]nmea.ConstellationState, []lineOfSight) {
	var states [nmea.NumConstellations]nmea.ConstellationState
	var used []lineOfSight

	for i := range s {
		sats := make([]nmea.Satellite, len(s[i]))
		for j, sat := range s[i] {
			sats[j] = nmea.Satellite{CN0: int(sat.cn0 * 100)}
			if !locked {
				continue
			}
			sats[j].Elevation = sat.elevation * degToRad
			sats[j].Azimuth = sat.azimuth * degToRad
			sats[j].ElAzValid = true
			if sat.usable(elevationMask) {
				states[i].InUse = states[i].InUse.Set(j)
				used = append(used, lineOfSight{elevation: sats[j].Elevation, azimuth: sats[j].Azimuth})
			}
		}
		states[i].Satellites = sats
	}
	return states, used
}

// qualityFor grades a locked fix by the number of satellites in use
func qualityFor(locked bool, inUse int) nmea.FixQuality {
	switch {
	case !locked:
		return nmea.QualityNone
	case inUse >= 4:
		return nmea.QualityFix3D
	case inUse == 3:
		return nmea.QualityFix2D
	}
	return nmea.QualityKept
}

// statuses lists every satellite for the status view
func (s *sky) statuses(locked bool, elevationMask float64) []SatelliteStatus {
	var out []SatelliteStatus
	for i, c := range nmea.Constellations {
		for j, sat := range s[i] {
			out = append(out, SatelliteStatus{
				Constellation: c.String(),
				ID:            c.SvidBase() + j,
				Elevation:     sat.elevation,
				Azimuth:       sat.azimuth,
				CN0:           sat.cn0,
				InUse:         locked && sat.usable(elevationMask),
			})
		}
	}
	return out
}
