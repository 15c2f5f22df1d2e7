package pvt

import "errors"

// Errors returned by the epoch pipeline
var (
	ErrNilSolution     = errors.New("nil solution")
	ErrInvalidSchedule = errors.New("invalid output schedule")
)
