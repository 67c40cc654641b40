package config

import "errors"

var (
	// ErrParsingConfig wraps failures reported by the env parser, such as a
	// missing required variable or a malformed duration.
	ErrParsingConfig = errors.New("config: failed to parse environment")

	// ErrNilPointer is returned when Load receives a nil destination.
	ErrNilPointer = errors.New("config: nil destination pointer")
)
