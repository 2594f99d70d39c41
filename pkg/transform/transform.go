// Package transform standardizes and imputes numeric columns, optionally
// fitting statistics on a training subset and per group.
package transform

import (
	"context"
	"fmt"

	"github.com/okian/survcurve/pkg/frame"
)

// Method names a standardization or imputation method.
type Method string

// Standardization methods.
const (
	MinMax Method = "minmax"
	ZScore Method = "zscore"
)

// Imputation methods.
const (
	Mean        Method = "mean"
	Median      Method = "median"
	Interpolate Method = "interpolate"
	ForwardFill Method = "ffill"
)

var (
	standardizeMethods = []Method{MinMax, ZScore}
	imputeMethods      = []Method{Mean, Median, Interpolate, ForwardFill}
)

// Step is one column transformation in a pipeline.
type Step struct {
	columns     []string
	method      Method
	trainColumn string
	trainValue  string
}

// StepOption configures a Step.
type StepOption func(*Step)

// WithTrain fits statistics only on the rows where column equals value, for
// example the training split. Interpolation and forward fill work along the
// column and ignore it.
func WithTrain(column, value string) StepOption {
	return func(s *Step) {
		s.trainColumn = column
		s.trainValue = value
	}
}

// Standardize builds a scaling step. Nulls stay null.
func Standardize(columns []string, method Method, opts ...StepOption) (Step, error) {
	return newStep(columns, method, standardizeMethods, opts)
}

// Impute builds a null-filling step.
func Impute(columns []string, method Method, opts ...StepOption) (Step, error) {
	return newStep(columns, method, imputeMethods, opts)
}

func newStep(columns []string, method Method, allowed []Method, opts []StepOption) (Step, error) {
	if len(columns) == 0 {
		return Step{}, ErrNoColumns
	}
	known := false
	for _, m := range allowed {
		if m == method {
			known = true
			break
		}
	}
	if !known {
		return Step{}, fmt.Errorf("%q, choose from %v: %w", method, allowed, ErrUnknownMethod)
	}
	s := Step{columns: append([]string(nil), columns...), method: method}
	for _, opt := range opts {
		opt(&s)
	}
	return s, nil
}

// Pipeline applies the steps in order. With over columns, statistics are fit
// and applied within each group of rows sharing those values.
func Pipeline(ctx context.Context, src frame.Source, steps []Step, over ...string) (frame.Source, error) {
	need := append([]string(nil), over...)
	for _, s := range steps {
		need = append(need, s.columns...)
		if s.trainColumn != "" {
			need = append(need, s.trainColumn)
		}
	}
	if err := frame.RequireColumns(src, need...); err != nil {
		return nil, err
	}
	schema, err := frame.ColumnNames(src)
	if err != nil {
		return nil, err
	}
	return frame.Map(ctx, src, schema, func(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
		for _, s := range steps {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			var err error
			if f, err = s.apply(f, over); err != nil {
				return nil, err
			}
		}
		return f, nil
	})
}

func (s Step) apply(f *frame.Frame, over []string) (*frame.Frame, error) {
	groups, err := frame.GroupBy(f, over...)
	if err != nil {
		return nil, err
	}
	train, err := s.trainMask(f)
	if err != nil {
		return nil, err
	}
	out := make([]*frame.Series, 0, len(s.columns))
	for _, name := range s.columns {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		values, err := col.AsFloat64()
		if err != nil {
			return nil, err
		}
		valid := make([]bool, len(values))
		for i := range valid {
			valid[i] = !col.IsNull(i)
		}
		for _, g := range groups {
			s.applyGroup(values, valid, train, g.Rows)
		}
		out = append(out, frame.NewNullableFloat(name, values, valid))
	}
	return f.WithColumns(out...)
}

func (s Step) trainMask(f *frame.Frame) ([]bool, error) {
	if s.trainColumn == "" {
		return nil, nil
	}
	col, err := f.Column(s.trainColumn)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, f.Height())
	for i := range mask {
		k, ok := col.Key(i)
		mask[i] = ok && k == s.trainValue
	}
	return mask, nil
}

// applyGroup transforms values[rows] in place.
func (s Step) applyGroup(values []float64, valid, train []bool, rows []int) {
	switch s.method {
	case Interpolate, ForwardFill:
		v, ok := gather(values, valid, rows)
		if s.method == Interpolate {
			interpolate(v, ok)
		} else {
			forwardFill(v, ok)
		}
		scatter(values, valid, rows, v, ok)
		return
	}

	var fit []float64
	for _, r := range rows {
		if valid[r] && (train == nil || train[r]) {
			fit = append(fit, values[r])
		}
	}

	switch s.method {
	case MinMax, ZScore:
		if len(fit) == 0 {
			for _, r := range rows {
				valid[r] = false
			}
			return
		}
		var offset, scale float64
		if s.method == MinMax {
			offset, scale = minMax(fit)
		} else {
			offset, scale = meanPopStd(fit)
		}
		for _, r := range rows {
			if valid[r] {
				values[r] = safeDivide(values[r]-offset, scale)
			}
		}
	case Mean, Median:
		if len(fit) == 0 {
			return
		}
		fill := median(fit)
		if s.method == Mean {
			fill = mean(fit)
		}
		for _, r := range rows {
			if !valid[r] {
				values[r], valid[r] = fill, true
			}
		}
	}
}

func gather(values []float64, valid []bool, rows []int) ([]float64, []bool) {
	v, ok := make([]float64, len(rows)), make([]bool, len(rows))
	for i, r := range rows {
		v[i], ok[i] = values[r], valid[r]
	}
	return v, ok
}

func scatter(values []float64, valid []bool, rows []int, v []float64, ok []bool) {
	for i, r := range rows {
		values[r], valid[r] = v[i], ok[i]
	}
}
