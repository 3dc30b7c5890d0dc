package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	ErrMalformedTimestamp    = errors.New("malformed timestamp")
	ErrMalformedDuration     = errors.New("malformed duration")
	ErrCheckOutBeforeCheckIn = errors.New("check_out is before check_in")
	ErrInvalidMethod         = errors.New("check method must be one of: portal, card")

	// Toggle errors
	ErrCheckInProgress = errors.New("a check-in or check-out is already in progress")
)

// ParseError reports backend data that could not be turned into a log or summary.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
