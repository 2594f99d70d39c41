package preprocess_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/preprocess"
	. "github.com/smartystreets/goconvey/convey"
)

func nullable(name string, values []float64, valid []bool) *frame.Series {
	return frame.NewNullableFloat(name, values, valid)
}

func TestDropNullColumns(t *testing.T) {
	Convey("Given a deferred frame with mostly-null columns", t, func() {
		ctx := context.Background()
		data := frame.MustNew(
			nullable("a", []float64{1, 2, 0, 4}, []bool{true, true, false, true}),
			nullable("b", []float64{0, 0, 0, 4}, []bool{false, false, false, true}),
			frame.NewFloat("c", []float64{1, 2, 3, 4}),
		).Lazy()

		Convey("When dropping columns at a 0.5 cutoff", func() {
			out, err := preprocess.DropNullColumns(ctx, data, 0.5)
			So(err, ShouldBeNil)

			Convey("Then the output stays deferred with the kept columns", func() {
				_, isLazy := out.(*frame.Lazy)
				So(isLazy, ShouldBeTrue)
				f, err := out.Collect(ctx)
				So(err, ShouldBeNil)
				So(f.Columns(), ShouldResemble, []string{"a", "c"})
			})
		})
	})
}

func TestDropLowVariance(t *testing.T) {
	Convey("Given a frame with a constant column", t, func() {
		ctx := context.Background()
		data := frame.MustNew(
			frame.NewFloat("const", []float64{2, 2, 2}),
			frame.NewFloat("varied", []float64{1, 2, 3}),
			frame.NewString("label", []string{"x", "y", "z"}),
			nullable("sparse", []float64{5, 0, 0}, []bool{true, false, false}),
		)

		Convey("Then only the varying numeric column survives", func() {
			out, err := preprocess.DropLowVariance(ctx, data, preprocess.DefaultVarianceCutoff)
			So(err, ShouldBeNil)
			So(out.Columns(), ShouldResemble, []string{"varied"})
		})
	})
}

func TestFilterNullRows(t *testing.T) {
	Convey("Given rows with nulls in some columns", t, func() {
		ctx := context.Background()
		data := frame.MustNew(
			nullable("a", []float64{1, 0, 0}, []bool{true, false, false}),
			nullable("b", []float64{0, 2, 0}, []bool{false, true, false}),
			frame.NewFloat("c", []float64{7, 8, 9}),
		)

		Convey("When filtering on a and b", func() {
			out, err := preprocess.FilterNullRows(ctx, data, "a", "b")
			So(err, ShouldBeNil)

			Convey("Then only rows null in both are removed", func() {
				f, _ := out.Collect(ctx)
				So(f.Height(), ShouldEqual, 2)
				c, _ := f.Column("c")
				v, _ := c.AsFloat64()
				So(v, ShouldResemble, []float64{7, 8})
			})
		})

		Convey("When filtering on an unknown column", func() {
			_, err := preprocess.FilterNullRows(ctx, data, "z")

			Convey("Then ErrColumnNotFound is returned", func() {
				So(errors.Is(err, frame.ErrColumnNotFound), ShouldBeTrue)
			})
		})
	})
}
