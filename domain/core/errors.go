package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Ladder construction errors
	ErrEmptyLadder         = errors.New("ladder has no levels")
	ErrMissingHardestLevel = errors.New("ladder omits the canonical hardest level")
	ErrNonMonotonicLadder  = errors.New("ladder levels are not strictly monotonic")

	// Staircase configuration errors
	ErrInvalidStaircaseParams = errors.New("invalid staircase parameters")
	ErrIndexOutOfRange        = errors.New("staircase index outside ladder range")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotRun   = errors.New("session has not been run to completion")
)

// Error constructors with context
func NewLadderError(err error, detail string) error {
	return fmt.Errorf("%w: %s", err, detail)
}

func NewParamError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidStaircaseParams, field, reason)
}

// IsConfigurationError reports whether err is fatal at session start
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrEmptyLadder) ||
		errors.Is(err, ErrMissingHardestLevel) ||
		errors.Is(err, ErrNonMonotonicLadder) ||
		errors.Is(err, ErrInvalidStaircaseParams)
}
