package service

import "errors"

// Sentinel error kinds returned by Evaluate.
var (
	ErrUnknownKind         = errors.New("unknown curve kind")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrTooManyHorizons     = errors.New("too many horizons")
	ErrTooManyObservations = errors.New("too many observations")
)
