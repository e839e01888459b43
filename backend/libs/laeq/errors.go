package laeq

import "errors"

var (
	// ErrNoData is returned when no sample falls inside the requested window.
	ErrNoData = errors.New("laeq: no data for window")
	// ErrInvalidWindow covers unknown window names and queries missing a date, a reference
	// time or a location.
	ErrInvalidWindow = errors.New("laeq: invalid window")
	// ErrNonFinite is returned by Reduce for NaN or infinite levels.
	ErrNonFinite = errors.New("laeq: non-finite level")
)
