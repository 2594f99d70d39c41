package survival

import "errors"

// Sentinel kinds for curve computation errors.
var (
	ErrNoHorizons = errors.New("no evaluation horizons")
	ErrNullValue  = errors.New("null value in required column")
	ErrTieMode    = errors.New("unknown tie mode")
)
