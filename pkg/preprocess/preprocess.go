// Package preprocess filters dataset columns and rows by null content and
// variance.
package preprocess

import (
	"context"
	"fmt"

	"github.com/okian/survcurve/pkg/frame"
	"gonum.org/v1/gonum/stat"
)

// DefaultVarianceCutoff is the variance below which a column counts as constant.
const DefaultVarianceCutoff = 1e-8

// DropNullColumns keeps the columns whose fraction of nulls is below cutoff.
// Deciding which columns survive needs the data, so a deferred src is realized
// once here and the selection itself stays deferred.
func DropNullColumns(ctx context.Context, src frame.Source, cutoff float64) (frame.Source, error) {
	return selectByCondition(ctx, src, func(s *frame.Series, height int) bool {
		if height == 0 {
			return true
		}
		return float64(s.NullCount())/float64(height) < cutoff
	})
}

// DropLowVariance keeps numeric columns whose sample variance exceeds cutoff.
// Nulls are ignored; string columns and columns with fewer than two values
// are dropped.
func DropLowVariance(ctx context.Context, src frame.Source, cutoff float64) (frame.Source, error) {
	return selectByCondition(ctx, src, func(s *frame.Series, _ int) bool {
		values, err := s.AsFloat64()
		if err != nil {
			return false
		}
		present := values[:0]
		for i, v := range values {
			if !s.IsNull(i) {
				present = append(present, v)
			}
		}
		if len(present) < 2 {
			return false
		}
		return stat.Variance(present, nil) > cutoff
	})
}

// FilterNullRows removes the rows where every listed column is null.
func FilterNullRows(ctx context.Context, src frame.Source, columns ...string) (frame.Source, error) {
	if err := frame.RequireColumns(src, columns...); err != nil {
		return nil, err
	}
	schema, err := frame.ColumnNames(src)
	if err != nil {
		return nil, err
	}
	return frame.Map(ctx, src, schema, func(_ context.Context, f *frame.Frame) (*frame.Frame, error) {
		series := make([]*frame.Series, len(columns))
		for i, name := range columns {
			s, err := f.Column(name)
			if err != nil {
				return nil, err
			}
			series[i] = s
		}
		keep := make([]bool, f.Height())
		for row := range keep {
			for _, s := range series {
				if !s.IsNull(row) {
					keep[row] = true
					break
				}
			}
		}
		return f.Filter(keep)
	})
}

func selectByCondition(ctx context.Context, src frame.Source, keep func(s *frame.Series, height int) bool) (frame.Source, error) {
	data, err := frame.CollectIfLazy(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("evaluate column condition: %w", err)
	}
	var kept []string
	for _, name := range data.Columns() {
		s, err := data.Column(name)
		if err != nil {
			return nil, err
		}
		if keep(s, data.Height()) {
			kept = append(kept, name)
		}
	}
	return frame.Map(ctx, src, kept, func(_ context.Context, f *frame.Frame) (*frame.Frame, error) {
		return f.Select(kept...)
	})
}
