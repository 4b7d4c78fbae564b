package cardgen

import "errors"

var (
	// ErrExhausted is returned by Replenisher.Next when no card is available
	// for a seed, because replenishment failed or produced nothing.
	ErrExhausted = errors.New("no cards available")

	// ErrInvalidOptions is returned when replenisher or cache options are
	// out of range.
	ErrInvalidOptions = errors.New("invalid options")
)
