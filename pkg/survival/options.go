package survival

import "fmt"

// TieMode controls how observations sharing a risk score are reported.
type TieMode int

const (
	// TieStable emits one row per observation. Tied rows are ordered by input
	// position and their counts differ even though they share a threshold;
	// only the last row of a tie carries the strictly-greater counts.
	TieStable TieMode = iota
	// TieDistinct emits one row per distinct threshold, carrying the
	// strictly-greater counts.
	TieDistinct
)

func (m TieMode) String() string {
	switch m {
	case TieStable:
		return "stable"
	case TieDistinct:
		return "distinct"
	default:
		return fmt.Sprintf("TieMode(%d)", int(m))
	}
}

// ParseTieMode parses "stable" or "distinct". The empty string means stable.
func ParseTieMode(s string) (TieMode, error) {
	switch s {
	case "", "stable":
		return TieStable, nil
	case "distinct":
		return TieDistinct, nil
	default:
		return TieStable, fmt.Errorf("%q: %w", s, ErrTieMode)
	}
}

type options struct {
	tieMode TieMode
	workers int
}

func defaultOptions() options {
	return options{tieMode: TieStable, workers: 1}
}

// Option applies a configuration option to a curve computation.
type Option func(*options)

// WithTieMode sets how tied risk scores are reported.
func WithTieMode(mode TieMode) Option {
	return func(o *options) {
		o.tieMode = mode
	}
}

// WithWorkers sets how many horizons are tabulated concurrently. Values below
// one are ignored. The output is identical for any worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
