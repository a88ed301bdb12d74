package engine

import "errors"

var (
	// ErrInvalidInput marks caller programming errors: malformed dates, inverted
	// intervals, non-positive durations.
	ErrInvalidInput = errors.New("invalid input")

	ErrOutsideAvailability = errors.New("outside availability")
	ErrInPast              = errors.New("interval is in the past")
	// ErrSlotTaken is returned when a proposed interval overlaps an existing commitment.
	ErrSlotTaken = errors.New("slot is no longer available")
)
