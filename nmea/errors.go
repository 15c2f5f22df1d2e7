package nmea

import "errors"

// Errors returned by the sentence composer
var (
	ErrInvalidInput   = errors.New("invalid encoder input")
	ErrBufferTooSmall = errors.New("output buffer too small")
)
