package pvt

import (
	"fmt"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
)

// Solution is the output of the positioning filter for one epoch.
type Solution struct {
	State geodesy.State `json:"state"`

	// Covariance is the packed upper triangle of the x, y, z and clock
	// covariance in the order used by geodesy.CalcDopValues. A zero or
	// negative xx term marks it unusable.
	Covariance [10]float64 `json:"covariance"`

	GpsWeek  int                                             `json:"gps_week"`
	WeekMs   int                                             `json:"week_ms"`
	Quality  nmea.FixQuality                                 `json:"quality"`
	SatCount int                                             `json:"sat_count"`
	Tracking [nmea.NumConstellations]nmea.ConstellationState `json:"tracking"`
}

// Epoch is a snapshot ready for encoding together with the rotation used to
// build it. Degenerate is set when the position was too close to the
// geocenter and the previous rotation was reused.
type Epoch struct {
	Snapshot   nmea.FixSnapshot
	Rotation   geodesy.RotationCoefficients
	Degenerate bool
}

// BuildSnapshot derives the geodetic position, local velocity, DOP values and
// UTC time of sol. prev is the rotation from the previous epoch (or
// geodesy.Identity before the first fix) and leap may be nil.
func BuildSnapshot(sol *Solution, prev geodesy.RotationCoefficients, leap *gnsstime.LeapSecondParams) (Epoch, error) {
	if sol == nil {
		return Epoch{}, ErrNilSolution
	}

	utc, err := gnsstime.GpsToUtc(sol.GpsWeek, sol.WeekMs, leap)
	if err != nil {
		return Epoch{}, fmt.Errorf("solution time week %d ms %d: %w", sol.GpsWeek, sol.WeekMs, err)
	}

	rc, ok := geodesy.CalcConvMatrix(sol.State.Position, prev)

	e := Epoch{Rotation: rc, Degenerate: !ok}
	e.Snapshot = nmea.FixSnapshot{
		Position:       geodesy.EcefToLlh(sol.State.Position),
		Velocity:       geodesy.VelocityToLocal(sol.State.Velocity, rc),
		Dop:            geodesy.CalcDopValues(sol.Covariance, rc),
		Time:           utc,
		Quality:        sol.Quality,
		SatCount:       sol.SatCount,
		Constellations: sol.Tracking,
	}
	if sol.Quality == nmea.QualityNone {
		e.Snapshot.Dop = geodesy.InvalidDop()
	}
	return e, nil
}
