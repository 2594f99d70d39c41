// Package frame provides a small columnar dataset abstraction with eager
// (Frame) and deferred (Lazy) realizations.
//
// Functions that accept a Source mirror its realization mode: an eager input
// produces an eager output, a deferred input produces a deferred output that is
// only computed when Collect is called.
package frame

import (
	"context"
	"fmt"
)

// Source is any dataset that can report its column names and be realized.
type Source interface {
	// Columns returns the column names in order without realizing data.
	Columns() []string
	// Collect realizes the dataset.
	Collect(ctx context.Context) (*Frame, error)
}

// Frame is an eager, immutable table of equal-length named columns.
type Frame struct {
	names  []string
	cols   map[string]*Series
	height int
}

// New builds a Frame from the given series. All series must have the same
// length and distinct names.
func New(series ...*Series) (*Frame, error) {
	f := &Frame{cols: make(map[string]*Series, len(series))}
	for i, s := range series {
		if _, dup := f.cols[s.Name()]; dup {
			return nil, fmt.Errorf("%q: %w", s.Name(), ErrDuplicateColumn)
		}
		if i == 0 {
			f.height = s.Len()
		} else if s.Len() != f.height {
			return nil, fmt.Errorf("%q has %d rows, want %d: %w", s.Name(), s.Len(), f.height, ErrLengthMismatch)
		}
		f.names = append(f.names, s.Name())
		f.cols[s.Name()] = s
	}
	return f, nil
}

// MustNew is New for statically known inputs; it panics on error.
func MustNew(series ...*Series) *Frame {
	f, err := New(series...)
	if err != nil {
		panic(err)
	}
	return f
}

// Height returns the number of rows.
func (f *Frame) Height() int { return f.height }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.names) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.names...) }

// Collect returns the frame itself.
func (f *Frame) Collect(context.Context) (*Frame, error) { return f, nil }

// Lazy wraps the frame in a deferred plan.
func (f *Frame) Lazy() *Lazy {
	return NewLazy(f.Columns(), f.Collect)
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Series, error) {
	s, ok := f.cols[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	return s, nil
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Select returns a frame with only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	series := make([]*Series, 0, len(names))
	for _, name := range names {
		s, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	out, err := New(series...)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		out.height = f.height
	}
	return out, nil
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	keep := make([]string, 0, len(f.names))
	for _, n := range f.names {
		if _, ok := skip[n]; !ok {
			keep = append(keep, n)
		}
	}
	out, _ := f.Select(keep...)
	return out
}

// WithColumns returns a frame where each series replaces the column of the
// same name, or is appended when no such column exists.
func (f *Frame) WithColumns(series ...*Series) (*Frame, error) {
	cols := make(map[string]*Series, len(f.cols)+len(series))
	names := append([]string(nil), f.names...)
	for k, v := range f.cols {
		cols[k] = v
	}
	for _, s := range series {
		if s.Len() != f.height && len(f.names) > 0 {
			return nil, fmt.Errorf("%q has %d rows, want %d: %w", s.Name(), s.Len(), f.height, ErrLengthMismatch)
		}
		if _, ok := cols[s.Name()]; !ok {
			names = append(names, s.Name())
		}
		cols[s.Name()] = s
	}
	ordered := make([]*Series, len(names))
	for i, n := range names {
		ordered[i] = cols[n]
	}
	return New(ordered...)
}

// Filter keeps the rows where mask is true.
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != f.height {
		return nil, fmt.Errorf("mask has %d rows, want %d: %w", len(mask), f.height, ErrLengthMismatch)
	}
	idx := make([]int, 0, f.height)
	for i, keep := range mask {
		if keep {
			idx = append(idx, i)
		}
	}
	return f.Take(idx), nil
}

// Take gathers the given row indices into a new frame.
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{names: append([]string(nil), f.names...), cols: make(map[string]*Series, len(f.names)), height: len(idx)}
	for _, n := range f.names {
		out.cols[n] = f.cols[n].Take(idx)
	}
	return out
}

// Lazy is a deferred dataset: a known schema plus a plan that produces the
// data on Collect.
type Lazy struct {
	schema []string
	plan   func(ctx context.Context) (*Frame, error)
}

// NewLazy builds a deferred dataset. The plan runs on every Collect.
func NewLazy(schema []string, plan func(ctx context.Context) (*Frame, error)) *Lazy {
	return &Lazy{schema: append([]string(nil), schema...), plan: plan}
}

// Columns returns the deferred schema.
func (l *Lazy) Columns() []string { return append([]string(nil), l.schema...) }

// Collect runs the plan.
func (l *Lazy) Collect(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.plan(ctx)
}

// CollectIfLazy realizes src, returning eager frames untouched.
func CollectIfLazy(ctx context.Context, src Source) (*Frame, error) {
	switch v := src.(type) {
	case *Frame:
		return v, nil
	case *Lazy:
		return v.Collect(ctx)
	case nil:
		return nil, fmt.Errorf("nil source: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%T: %w", src, ErrUnsupported)
	}
}

// ColumnNames returns the column names of src without realizing it.
func ColumnNames(src Source) ([]string, error) {
	switch v := src.(type) {
	case *Frame, *Lazy:
		return v.Columns(), nil
	case nil:
		return nil, fmt.Errorf("nil source: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%T: %w", src, ErrUnsupported)
	}
}

// RequireColumns fails with ErrColumnNotFound if any name is absent from src.
// It never realizes src.
func RequireColumns(src Source, names ...string) error {
	have, err := ColumnNames(src)
	if err != nil {
		return err
	}
	set := make(map[string]struct{}, len(have))
	for _, n := range have {
		set[n] = struct{}{}
	}
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return fmt.Errorf("%q: %w", n, ErrColumnNotFound)
		}
	}
	return nil
}

// Map applies fn to src, mirroring its realization mode: eager sources are
// transformed immediately, deferred ones return a Lazy with the given output
// schema whose plan collects src and then applies fn.
func Map(ctx context.Context, src Source, schema []string, fn func(ctx context.Context, f *Frame) (*Frame, error)) (Source, error) {
	switch v := src.(type) {
	case *Frame:
		return fn(ctx, v)
	case *Lazy:
		return NewLazy(schema, func(ctx context.Context) (*Frame, error) {
			f, err := v.Collect(ctx)
			if err != nil {
				return nil, err
			}
			return fn(ctx, f)
		}), nil
	case nil:
		return nil, fmt.Errorf("nil source: %w", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%T: %w", src, ErrUnsupported)
	}
}
