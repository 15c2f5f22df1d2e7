package sim

import "time"

// SatelliteStatus is one simulated satellite as shown in the status view
type SatelliteStatus struct {
	Constellation string  `json:"constellation"`
	ID            int     `json:"id"`
	Elevation     float64 `json:"elevation"` // degrees above horizon
	Azimuth       float64 `json:"azimuth"`   // degrees from north
	CN0           float64 `json:"cn0"`       // dB-Hz
	InUse         bool    `json:"in_use"`
}

// Position represents the current simulated position and fix state
type Position struct {
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
	Altitude   float64           `json:"altitude"`
	Speed      float64           `json:"speed"`  // knots
	Course     float64           `json:"course"` // degrees
	IsLocked   bool              `json:"is_locked"`
	Quality    string            `json:"quality"`
	InUse      int               `json:"in_use"`
	Satellites []SatelliteStatus `json:"satellites"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Status represents the current simulator status
type Status struct {
	Running         bool          `json:"running"`
	StartTime       time.Time     `json:"start_time,omitempty"`
	ElapsedTime     time.Duration `json:"elapsed_time"`
	Epochs          uint64        `json:"epochs"`
	Position        Position      `json:"position"`
	Config          Config        `json:"config"`
	ReplayIndex     int           `json:"replay_index,omitempty"`
	ReplayTotal     int           `json:"replay_total,omitempty"`
	ReplayCompleted bool          `json:"replay_completed,omitempty"`
}
