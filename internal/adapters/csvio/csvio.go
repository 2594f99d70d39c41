// Package csvio reads tables from CSV into frames and writes frames back out.
// Files ending in .gz or .zst are transparently decompressed and compressed.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/okian/survcurve/pkg/frame"
)

// Sentinel kinds for CSV errors.
var (
	ErrEmpty  = errors.New("csv has no header")
	ErrHeader = errors.New("invalid csv header")
)

// ReadFile reads path, decompressing by extension.
func ReadFile(ctx context.Context, path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	return Read(ctx, r)
}

// Read parses CSV with a header row. A column whose non-empty cells all parse
// as numbers becomes float, one holding only true/false becomes bool, and
// anything else is a string column. Empty cells are null.
func Read(ctx context.Context, r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if h == "" {
			return nil, fmt.Errorf("empty column name: %w", ErrHeader)
		}
		if _, dup := seen[h]; dup {
			return nil, fmt.Errorf("%q repeated: %w", h, ErrHeader)
		}
		seen[h] = struct{}{}
	}

	cells := make([][]string, len(header))
	for row := 0; ; row++ {
		if row%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for j, v := range rec {
			cells[j] = append(cells[j], v)
		}
	}

	series := make([]*frame.Series, len(header))
	for j, name := range header {
		series[j] = infer(name, cells[j])
	}
	return frame.New(series...)
}

func infer(name string, cells []string) *frame.Series {
	valid := make([]bool, len(cells))
	numeric, boolean := true, true
	for i, c := range cells {
		c = strings.TrimSpace(c)
		cells[i] = c
		if c == "" {
			continue
		}
		valid[i] = true
		if numeric {
			if _, err := strconv.ParseFloat(c, 64); err != nil {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(c); !ok {
				boolean = false
			}
		}
	}

	switch {
	case numeric:
		out := make([]float64, len(cells))
		for i, c := range cells {
			if valid[i] {
				out[i], _ = strconv.ParseFloat(c, 64)
			}
		}
		return frame.NewNullableFloat(name, out, valid)
	case boolean:
		out := make([]bool, len(cells))
		for i, c := range cells {
			out[i], _ = parseBool(c)
		}
		return frame.NewNullableBool(name, out, valid)
	default:
		return frame.NewNullableString(name, cells, valid)
	}
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// WriteFile writes f to path, compressing by extension.
func WriteFile(path string, f *frame.Frame) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	switch {
	case strings.HasSuffix(path, ".gz"):
		zw := gzip.NewWriter(out)
		if err := Write(zw, f); err != nil {
			return err
		}
		return zw.Close()
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		if err := Write(zw, f); err != nil {
			return err
		}
		return zw.Close()
	default:
		return Write(out, f)
	}
}

// Write renders f as CSV with a header row. Nulls become empty cells and
// non-finite floats are written as NaN, +Inf or -Inf.
func Write(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	names := f.Columns()
	if err := cw.Write(names); err != nil {
		return err
	}
	cols := make([]*frame.Series, len(names))
	for j, name := range names {
		s, err := f.Column(name)
		if err != nil {
			return err
		}
		cols[j] = s
	}
	rec := make([]string, len(names))
	for i := 0; i < f.Height(); i++ {
		for j, s := range cols {
			rec[j], _ = s.Key(i)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
