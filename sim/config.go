package sim

import (
	"time"

	"github.com/Bucknalla/go-pvt-nmea/gnsstime"
	"github.com/Bucknalla/go-pvt-nmea/nmea"
)

// Sky holds the number of simulated satellites per constellation
type Sky struct {
	GPS     int `yaml:"gps" json:"gps"`
	BeiDou  int `yaml:"beidou" json:"beidou"`
	Galileo int `yaml:"galileo" json:"galileo"`
	GLONASS int `yaml:"glonass" json:"glonass"`
}

// Count returns the number of satellites simulated for c
func (s Sky) Count(c nmea.Constellation) int {
	switch c {
	case nmea.GPS:
		return s.GPS
	case nmea.BeiDou:
		return s.BeiDou
	case nmea.Galileo:
		return s.Galileo
	case nmea.GLONASS:
		return s.GLONASS
	}
	return 0
}

// Total returns the number of satellites across all constellations
func (s Sky) Total() int {
	return s.GPS + s.BeiDou + s.Galileo + s.GLONASS
}

// Config holds all configuration options for the receiver simulator
type Config struct {
	Latitude       float64       `yaml:"latitude" json:"latitude"`
	Longitude      float64       `yaml:"longitude" json:"longitude"`
	Radius         float64       `yaml:"radius" json:"radius"`                   // in meters
	Altitude       float64       `yaml:"altitude" json:"altitude"`               // starting altitude in meters
	Jitter         float64       `yaml:"jitter" json:"jitter"`                   // 0.0-1.0
	AltitudeJitter float64       `yaml:"altitude_jitter" json:"altitude_jitter"` // 0.0-1.0
	Speed          float64       `yaml:"speed" json:"speed"`                     // knots
	Course         float64       `yaml:"course" json:"course"`                   // degrees
	Sky            Sky           `yaml:"sky" json:"sky"`
	ElevationMask  float64       `yaml:"elevation_mask" json:"elevation_mask"` // degrees
	TimeToLock     time.Duration `yaml:"time_to_lock" json:"time_to_lock"`
	OutputRate     time.Duration `yaml:"output_rate" json:"output_rate"`
	Duration       time.Duration `yaml:"duration" json:"duration"` // 0 = run indefinitely
	ReplayFile     string        `yaml:"replay_file" json:"replay_file,omitempty"`
	ReplaySpeed    float64       `yaml:"replay_speed" json:"replay_speed"`
	ReplayLoop     bool          `yaml:"replay_loop" json:"replay_loop"`
	TrackFile      string        `yaml:"track_file" json:"track_file,omitempty"` // GPX track output, empty to disable
	Seed           int64         `yaml:"seed" json:"seed"`                       // 0 seeds from the clock

	// Leap is used to derive GPS time from the wall clock; nil applies the
	// default offset
	Leap *gnsstime.LeapSecondParams `yaml:"-" json:"-"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Latitude:      37.7749, // San Francisco
		Longitude:     -122.4194,
		Radius:        100.0,
		Altitude:      45.0,
		Sky:           Sky{GPS: 8, Galileo: 4, GLONASS: 4},
		ElevationMask: 10,
		TimeToLock:    2 * time.Second,
		OutputRate:    1 * time.Second,
		ReplaySpeed:   1.0,
	}
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	for _, con := range nmea.Constellations {
		if n := c.Sky.Count(con); n < 0 || n > nmea.MaxGsvSatellites {
			return ErrInvalidSatelliteCount
		}
	}
	if c.Sky.Total() < 4 {
		return ErrInvalidSatelliteCount
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidPosition
	}
	if c.Radius < 0 {
		return ErrInvalidRadius
	}
	if c.Jitter < 0.0 || c.Jitter > 1.0 {
		return ErrInvalidJitter
	}
	if c.AltitudeJitter < 0.0 || c.AltitudeJitter > 1.0 {
		return ErrInvalidAltitudeJitter
	}
	if c.Speed < 0.0 {
		return ErrInvalidSpeed
	}
	if c.Course < 0.0 || c.Course >= 360.0 {
		return ErrInvalidCourse
	}
	if c.ElevationMask < 0 || c.ElevationMask >= 90 {
		return ErrInvalidElevationMask
	}
	if c.OutputRate <= 0 {
		return ErrInvalidOutputRate
	}
	if c.ReplaySpeed <= 0.0 {
		return ErrInvalidReplaySpeed
	}
	return c.Leap.Validate()
}
