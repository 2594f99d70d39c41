// Package split assigns rows of a dataset to named partitions such as train,
// validation and test.
package split

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/logger"
)

// Sentinel kinds for split errors.
var (
	ErrInvalidSplits = errors.New("invalid split proportions")
)

// Split is a named partition and its share of the units.
type Split struct {
	Name     string
	Fraction float64
}

// Validate normalizes the fractions to sum to one. normalized reports whether
// the input had to be rescaled.
func Validate(splits []Split) (out []Split, normalized bool, err error) {
	if len(splits) == 0 {
		return nil, false, fmt.Errorf("no splits: %w", ErrInvalidSplits)
	}
	sum := 0.0
	seen := make(map[string]struct{}, len(splits))
	for _, s := range splits {
		if s.Name == "" || s.Fraction < 0 || math.IsNaN(s.Fraction) || math.IsInf(s.Fraction, 0) {
			return nil, false, fmt.Errorf("split %q with fraction %v: %w", s.Name, s.Fraction, ErrInvalidSplits)
		}
		if _, dup := seen[s.Name]; dup {
			return nil, false, fmt.Errorf("duplicate split %q: %w", s.Name, ErrInvalidSplits)
		}
		seen[s.Name] = struct{}{}
		sum += s.Fraction
	}
	if sum == 0 {
		return nil, false, fmt.Errorf("fractions sum to zero: %w", ErrInvalidSplits)
	}
	out = make([]Split, len(splits))
	for i, s := range splits {
		out[i] = Split{Name: s.Name, Fraction: s.Fraction / sum}
	}
	return out, sum != 1, nil
}

// Assign adds a string column naming each row's split. Units (rows, or groups
// of rows when By is set) are assigned within each stratum so that every split
// receives its share of every stratum, rounded to whole units.
func Assign(ctx context.Context, src frame.Source, splits []Split, opts ...Option) (frame.Source, error) {
	o := options{shuffle: true, name: defaultColumn}
	for _, opt := range opts {
		opt(&o)
	}
	splits, normalized, err := Validate(splits)
	if err != nil {
		return nil, err
	}
	if normalized && o.log != nil {
		o.log.Warn(ctx, "split proportions were normalized to sum to 1", logger.Any("splits", splits))
	}
	if err := frame.RequireColumns(src, append(append([]string(nil), o.by...), o.stratifyBy...)...); err != nil {
		return nil, err
	}
	schema, err := frame.ColumnNames(src)
	if err != nil {
		return nil, err
	}
	if !contains(schema, o.name) {
		schema = append(schema, o.name)
	}
	return frame.Map(ctx, src, schema, func(_ context.Context, f *frame.Frame) (*frame.Frame, error) {
		labels, err := assign(f, splits, o)
		if err != nil {
			return nil, err
		}
		return f.WithColumns(frame.NewString(o.name, labels))
	})
}

func assign(f *frame.Frame, splits []Split, o options) ([]string, error) {
	units, err := unitsOf(f, o.by)
	if err != nil {
		return nil, err
	}
	strata, err := stratify(f, units, o.stratifyBy)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(o.seed)) //nolint:gosec // reproducible splits, not security sensitive
	labels := make([]string, f.Height())
	for _, members := range strata {
		if o.shuffle {
			rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		}
		bounds := boundaries(splits, len(members))
		s := 0
		for k, u := range members {
			for s < len(bounds)-1 && k >= bounds[s] {
				s++
			}
			for _, row := range units[u] {
				labels[row] = splits[s].Name
			}
		}
	}
	return labels, nil
}

// unitsOf returns the row sets assigned as a whole.
func unitsOf(f *frame.Frame, by []string) ([][]int, error) {
	if len(by) == 0 {
		units := make([][]int, f.Height())
		for i := range units {
			units[i] = []int{i}
		}
		return units, nil
	}
	groups, err := frame.GroupBy(f, by...)
	if err != nil {
		return nil, err
	}
	units := make([][]int, len(groups))
	for i, g := range groups {
		units[i] = g.Rows
	}
	return units, nil
}

// stratify groups unit indices by the stratum of each unit's first row.
func stratify(f *frame.Frame, units [][]int, columns []string) ([][]int, error) {
	if len(columns) == 0 {
		all := make([]int, len(units))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}, nil
	}
	first := make([]int, len(units))
	for i, rows := range units {
		first[i] = rows[0]
	}
	groups, err := frame.GroupBy(f.Take(first), columns...)
	if err != nil {
		return nil, err
	}
	strata := make([][]int, len(groups))
	for i, g := range groups {
		strata[i] = g.Rows
	}
	return strata, nil
}

// boundaries returns, per split, the exclusive upper unit index.
func boundaries(splits []Split, n int) []int {
	bounds := make([]int, len(splits))
	cum := 0.0
	for i, s := range splits {
		cum += s.Fraction
		bounds[i] = int(math.Round(cum * float64(n)))
	}
	bounds[len(bounds)-1] = n
	return bounds
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
