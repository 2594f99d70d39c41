package transform

import "errors"

// Sentinel kinds for transform errors.
var (
	ErrUnknownMethod = errors.New("unknown method")
	ErrNoColumns     = errors.New("no columns given")
)
