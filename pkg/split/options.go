package split

import "github.com/okian/survcurve/pkg/logger"

const defaultColumn = "split"

type options struct {
	by         []string
	stratifyBy []string
	seed       int64
	shuffle    bool
	name       string
	log        logger.Logger
}

// Option applies a configuration option to Assign.
type Option func(*options)

// By keeps all rows sharing these column values in the same split.
func By(columns ...string) Option {
	return func(o *options) {
		o.by = append([]string(nil), columns...)
	}
}

// StratifyBy preserves the distribution of these columns in every split.
func StratifyBy(columns ...string) Option {
	return func(o *options) {
		o.stratifyBy = append([]string(nil), columns...)
	}
}

// WithSeed sets the shuffle seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithShuffle toggles shuffling. Without it, units are assigned in order of
// first appearance.
func WithShuffle(shuffle bool) Option {
	return func(o *options) {
		o.shuffle = shuffle
	}
}

// WithName sets the output column name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger reports proportion normalization through log.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
