package frame

import (
	"context"
	"fmt"
	"strings"
)

// JoinStrategy selects which rows survive a join.
type JoinStrategy string

// Supported join strategies.
const (
	JoinInner JoinStrategy = "inner"
	JoinLeft  JoinStrategy = "left"
)

const rightSuffix = "_right"

// Join reduces frames left to right, joining each pair on the key columns.
// Keys are coalesced into a single column; other clashing names from the right
// frame get a "_right" suffix.
func Join(ctx context.Context, frames []*Frame, on []string, how JoinStrategy) (*Frame, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to join: %w", ErrUnsupported)
	}
	out := frames[0]
	for _, right := range frames[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		out, err = joinPair(out, right, on, how)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func joinPair(left, right *Frame, on []string, how JoinStrategy) (*Frame, error) {
	if how != JoinInner && how != JoinLeft {
		return nil, fmt.Errorf("%q: %w", how, ErrJoinStrategy)
	}
	leftKeys, err := rowKeys(left, on)
	if err != nil {
		return nil, err
	}
	rightKeys, err := rowKeys(right, on)
	if err != nil {
		return nil, err
	}

	index := make(map[string][]int, right.Height())
	for i, k := range rightKeys {
		if k == "" {
			continue
		}
		index[k] = append(index[k], i)
	}

	var leftIdx, rightIdx []int
	for i, k := range leftKeys {
		matches := index[k]
		if k == "" {
			matches = nil
		}
		if len(matches) == 0 {
			if how == JoinLeft {
				leftIdx = append(leftIdx, i)
				rightIdx = append(rightIdx, -1)
			}
			continue
		}
		for _, j := range matches {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
		}
	}

	keySet := make(map[string]struct{}, len(on))
	for _, k := range on {
		keySet[k] = struct{}{}
	}
	series := make([]*Series, 0, left.Width()+right.Width())
	for _, n := range left.names {
		series = append(series, left.cols[n].Take(leftIdx))
	}
	for _, n := range right.names {
		if _, isKey := keySet[n]; isKey {
			continue
		}
		s := right.cols[n].Take(rightIdx)
		if left.Has(n) {
			s = s.Rename(n + rightSuffix)
		}
		series = append(series, s)
	}
	out, err := New(series...)
	if err != nil {
		return nil, err
	}
	out.height = len(leftIdx)
	return out, nil
}

// rowKeys renders the composite key of every row. Rows with a null key part
// get the empty key, which never matches.
func rowKeys(f *Frame, on []string) ([]string, error) {
	cols := make([]*Series, len(on))
	for i, name := range on {
		s, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = s
	}
	keys := make([]string, f.Height())
	parts := make([]string, len(cols))
	for i := range keys {
		null := false
		for j, s := range cols {
			k, ok := s.Key(i)
			if !ok {
				null = true
				break
			}
			parts[j] = s.Kind().String() + ":" + k
		}
		if !null {
			keys[i] = strings.Join(parts, "\x1f")
		}
	}
	return keys, nil
}
