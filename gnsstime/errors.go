package gnsstime

import "errors"

// ErrOutOfRange is returned for calendar, GLONASS or GPS time values outside
// the supported 1984 to 2099 span, and for malformed leap second parameters.
var ErrOutOfRange = errors.New("time value out of supported range")
