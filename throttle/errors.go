package throttle

import "errors"

var (
	// ErrZeroCapacity is returned by New when bytes_per_second is zero — a
	// throttle that can never release anything is a construction error, not
	// a runtime one.
	ErrZeroCapacity = errors.New("throttle: bytes_per_second must be greater than zero")
	// ErrRequestExceedsBurst is returned by WaitFor when n exceeds the
	// bucket's own capacity: no amount of waiting will ever make the
	// request fit, so it is reported immediately instead of blocking
	// forever.
	ErrRequestExceedsBurst = errors.New("throttle: requested byte count exceeds the throttle's burst capacity")
)
