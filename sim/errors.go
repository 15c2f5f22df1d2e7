package sim

import "errors"

// Common errors returned by the receiver simulator
var (
	ErrInvalidSatelliteCount   = errors.New("satellites per constellation must be between 0 and 36, at least 4 in total")
	ErrInvalidRadius           = errors.New("radius must be positive")
	ErrInvalidPosition         = errors.New("latitude must be within ±90 and longitude within ±180 degrees")
	ErrInvalidJitter           = errors.New("jitter must be between 0.0 and 1.0")
	ErrInvalidAltitudeJitter   = errors.New("altitude jitter must be between 0.0 and 1.0")
	ErrInvalidSpeed            = errors.New("speed must be non-negative")
	ErrInvalidCourse           = errors.New("course must be between 0.0 and 359.9 degrees")
	ErrInvalidElevationMask    = errors.New("elevation mask must be between 0 and 90 degrees")
	ErrInvalidOutputRate       = errors.New("output rate must be positive")
	ErrInvalidReplaySpeed      = errors.New("replay speed must be positive")
	ErrEmptyTrack              = errors.New("no track points or route points found")
	ErrSimulatorNotRunning     = errors.New("simulator is not running")
	ErrSimulatorAlreadyRunning = errors.New("simulator is already running")
)
