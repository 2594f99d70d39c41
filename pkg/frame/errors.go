package frame

import "errors"

// Sentinel kinds for frame errors. These allow errors.Is/As from callers.
var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length mismatch")
	ErrKind            = errors.New("unsupported column kind")
	ErrUnsupported     = errors.New("unsupported source")
	ErrJoinStrategy    = errors.New("unknown join strategy")
)
