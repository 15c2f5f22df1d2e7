package nmea

import (
	"fmt"

	"github.com/Bucknalla/go-pvt-nmea/geodesy"
	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
)

// FixQuality grades a position solution
type FixQuality uint8

const (
	QualityNone FixQuality = iota
	// QualityKept is a position held or propagated from an earlier epoch
	QualityKept
	QualityFix2D
	QualityFix3D
)

// Valid reports whether the quality is better than a kept position
func (q FixQuality) Valid() bool {
	return q > QualityKept
}

func (q FixQuality) String() string {
	switch q {
	case QualityNone:
		return "none"
	case QualityKept:
		return "kept"
	case QualityFix2D:
		return "2d"
	case QualityFix3D:
		return "3d"
	}
	return "unknown"
}

// Satellite is the tracking state of one satellite. Elevation and Azimuth are
// radians and only meaningful when ElAzValid is set. CN0 is in 0.01 dB-Hz.
type Satellite struct {
	Elevation float64 `json:"elevation"`
	Azimuth   float64 `json:"azimuth"`
	CN0       int     `json:"cn0"`
	ElAzValid bool    `json:"elaz_valid"`
}

// ConstellationState is the tracking state of one constellation. Satellite i
// has ID SvidBase()+i.
type ConstellationState struct {
	InUse      SatMask     `json:"in_use"`
	Satellites []Satellite `json:"satellites"`
}

// FixSnapshot is everything the composer needs for one epoch. It must not be
// modified while Encode runs.
type FixSnapshot struct {
	Position       geodesy.LLH                           `json:"position"`
	Velocity       geodesy.LocalVelocity                 `json:"velocity"`
	Dop            geodesy.DopSet                        `json:"dop"`
	Time           gnsstime.CalendarTime                 `json:"time"`
	Quality        FixQuality                            `json:"quality"`
	SatCount       int                                   `json:"sat_count"`
	Constellations [NumConstellations]ConstellationState `json:"constellations"`
}

// State returns the tracking state of c
func (s *FixSnapshot) State(c Constellation) *ConstellationState {
	return &s.Constellations[c.index()]
}

// SingleSystem returns the constellation the fix was solved from when exactly
// one constellation has satellites in use.
func (s *FixSnapshot) SingleSystem() (Constellation, bool) {
	var used Constellation
	for _, c := range Constellations {
		if s.State(c).InUse == 0 {
			continue
		}
		if used != 0 {
			return 0, false
		}
		used = c
	}
	return used, used != 0
}

func (s *FixSnapshot) validate() error {
	for _, c := range Constellations {
		if len(s.State(c).Satellites) > MaxSatellites {
			return ErrInvalidInput
		}
	}
	if s.SatCount < 0 {
		return ErrInvalidInput
	}
	if err := s.Time.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
