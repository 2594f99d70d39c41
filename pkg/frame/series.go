package frame

import (
	"fmt"
	"strconv"
)

// Kind identifies the value type stored by a Series.
type Kind int

// Supported series kinds.
const (
	KindFloat Kind = iota
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Series is a named, immutable column of values. A nil validity mask means
// every value is present.
type Series struct {
	name   string
	kind   Kind
	floats []float64
	bools  []bool
	strs   []string
	valid  []bool
}

// NewFloat builds a float64 series. The slice is copied.
func NewFloat(name string, values []float64) *Series {
	return &Series{name: name, kind: KindFloat, floats: append([]float64(nil), values...)}
}

// NewNullableFloat builds a float64 series where valid[i] == false marks a null.
func NewNullableFloat(name string, values []float64, valid []bool) *Series {
	s := NewFloat(name, values)
	s.valid = normalizeMask(valid, len(values))
	return s
}

// NewBool builds a bool series.
func NewBool(name string, values []bool) *Series {
	return &Series{name: name, kind: KindBool, bools: append([]bool(nil), values...)}
}

// NewNullableBool builds a bool series with a validity mask.
func NewNullableBool(name string, values []bool, valid []bool) *Series {
	s := NewBool(name, values)
	s.valid = normalizeMask(valid, len(values))
	return s
}

// NewString builds a string series.
func NewString(name string, values []string) *Series {
	return &Series{name: name, kind: KindString, strs: append([]string(nil), values...)}
}

// NewNullableString builds a string series with a validity mask.
func NewNullableString(name string, values []string, valid []bool) *Series {
	s := NewString(name, values)
	s.valid = normalizeMask(valid, len(values))
	return s
}

// normalizeMask drops masks that mark everything valid.
func normalizeMask(valid []bool, n int) []bool {
	if valid == nil {
		return nil
	}
	out := make([]bool, n)
	allValid := true
	for i := range out {
		out[i] = i < len(valid) && valid[i]
		if !out[i] {
			allValid = false
		}
	}
	if allValid {
		return nil
	}
	return out
}

// Name returns the column name.
func (s *Series) Name() string { return s.name }

// Kind returns the value kind.
func (s *Series) Kind() Kind { return s.kind }

// Len returns the number of values, nulls included.
func (s *Series) Len() int {
	switch s.kind {
	case KindBool:
		return len(s.bools)
	case KindString:
		return len(s.strs)
	default:
		return len(s.floats)
	}
}

// IsNull reports whether value i is missing.
func (s *Series) IsNull(i int) bool {
	return s.valid != nil && !s.valid[i]
}

// NullCount returns the number of missing values.
func (s *Series) NullCount() int {
	if s.valid == nil {
		return 0
	}
	n := 0
	for _, ok := range s.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Validity returns a copy of the validity mask, or nil when there are no nulls.
func (s *Series) Validity() []bool {
	if s.valid == nil {
		return nil
	}
	return append([]bool(nil), s.valid...)
}

// Rename returns a copy of the series under a new name.
func (s *Series) Rename(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// AsFloat64 converts the series to float64. Bools map to 0/1.
func (s *Series) AsFloat64() ([]float64, error) {
	switch s.kind {
	case KindFloat:
		return append([]float64(nil), s.floats...), nil
	case KindBool:
		out := make([]float64, len(s.bools))
		for i, b := range s.bools {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is %s: %w", s.name, s.kind, ErrKind)
	}
}

// AsBool converts the series to bool. Numeric values are true when non-zero.
func (s *Series) AsBool() ([]bool, error) {
	switch s.kind {
	case KindBool:
		return append([]bool(nil), s.bools...), nil
	case KindFloat:
		out := make([]bool, len(s.floats))
		for i, v := range s.floats {
			out[i] = v != 0
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column %q is %s: %w", s.name, s.kind, ErrKind)
	}
}

// Strings returns the values of a string series.
func (s *Series) Strings() ([]string, error) {
	if s.kind != KindString {
		return nil, fmt.Errorf("column %q is %s: %w", s.name, s.kind, ErrKind)
	}
	return append([]string(nil), s.strs...), nil
}

// Key renders value i as a comparable string, used for grouping and joins.
// Nulls render as the empty key with ok == false.
func (s *Series) Key(i int) (string, bool) {
	if s.IsNull(i) {
		return "", false
	}
	switch s.kind {
	case KindBool:
		return strconv.FormatBool(s.bools[i]), true
	case KindString:
		return s.strs[i], true
	default:
		return strconv.FormatFloat(s.floats[i], 'g', -1, 64), true
	}
}

// Take gathers the rows at idx into a new series with the same name.
// A negative index produces a null.
func (s *Series) Take(idx []int) *Series {
	out := &Series{name: s.name, kind: s.kind}
	var valid []bool
	if s.valid != nil {
		valid = make([]bool, len(idx))
	}
	markNull := func(j int) {
		if valid == nil {
			valid = make([]bool, len(idx))
			for k := 0; k < j; k++ {
				valid[k] = true
			}
		}
		valid[j] = false
	}
	switch s.kind {
	case KindFloat:
		out.floats = make([]float64, len(idx))
	case KindBool:
		out.bools = make([]bool, len(idx))
	case KindString:
		out.strs = make([]string, len(idx))
	}
	for j, i := range idx {
		if i < 0 || s.IsNull(i) {
			markNull(j)
			continue
		}
		if valid != nil {
			valid[j] = true
		}
		switch s.kind {
		case KindFloat:
			out.floats[j] = s.floats[i]
		case KindBool:
			out.bools[j] = s.bools[i]
		case KindString:
			out.strs[j] = s.strs[i]
		}
	}
	out.valid = normalizeMask(valid, len(idx))
	return out
}
