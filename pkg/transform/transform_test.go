package transform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/transform"
	. "github.com/smartystreets/goconvey/convey"
)

func floats(f *frame.Frame, name string) []float64 {
	s, err := f.Column(name)
	So(err, ShouldBeNil)
	v, err := s.AsFloat64()
	So(err, ShouldBeNil)
	return v
}

func run(src frame.Source, steps []transform.Step, over ...string) *frame.Frame {
	ctx := context.Background()
	out, err := transform.Pipeline(ctx, src, steps, over...)
	So(err, ShouldBeNil)
	f, err := out.Collect(ctx)
	So(err, ShouldBeNil)
	return f
}

func TestStandardize(t *testing.T) {
	Convey("Given two numeric columns", t, func() {
		data := frame.MustNew(
			frame.NewFloat("a", []float64{-1, -0.5, 0, 1}),
			frame.NewFloat("b", []float64{2, 6, 10, 18}),
		)

		Convey("When min-max scaling", func() {
			step, err := transform.Standardize([]string{"a", "b"}, transform.MinMax)
			So(err, ShouldBeNil)
			f := run(data, []transform.Step{step})

			Convey("Then both map onto [0,1]", func() {
				So(floats(f, "a"), ShouldResemble, []float64{0, 0.25, 0.5, 1})
				So(floats(f, "b"), ShouldResemble, []float64{0, 0.25, 0.5, 1})
			})
		})
	})

	Convey("Given a binary column", t, func() {
		data := frame.MustNew(frame.NewFloat("a", []float64{0, 0, 1, 1}))

		Convey("When z-scoring", func() {
			step, _ := transform.Standardize([]string{"a"}, transform.ZScore)
			f := run(data, []transform.Step{step})

			Convey("Then population std is used", func() {
				So(floats(f, "a"), ShouldResemble, []float64{-1, -1, 1, 1})
			})
		})
	})

	Convey("Given a constant column", t, func() {
		data := frame.MustNew(frame.NewFloat("a", []float64{3, 3}))

		Convey("Then scaling divides by one instead of zero", func() {
			step, _ := transform.Standardize([]string{"a"}, transform.MinMax)
			f := run(data, []transform.Step{step})
			So(floats(f, "a"), ShouldResemble, []float64{0, 0})
		})
	})

	Convey("Given statistics fit on a training split", t, func() {
		data := frame.MustNew(
			frame.NewString("split", []string{"train", "train", "test"}),
			frame.NewFloat("a", []float64{0, 10, 20}),
		)
		step, _ := transform.Standardize([]string{"a"}, transform.MinMax, transform.WithTrain("split", "train"))
		f := run(data, []transform.Step{step})

		Convey("Then test rows are scaled with training bounds", func() {
			So(floats(f, "a"), ShouldResemble, []float64{0, 1, 2})
		})
	})

	Convey("Given an unknown method", t, func() {
		_, err := transform.Standardize([]string{"a"}, transform.Median)

		Convey("Then ErrUnknownMethod is returned", func() {
			So(errors.Is(err, transform.ErrUnknownMethod), ShouldBeTrue)
		})
	})
}

func TestImpute(t *testing.T) {
	values := []float64{1, 0, 3, 0, 10}
	valid := []bool{true, false, true, false, true}

	Convey("Given a column with interior nulls", t, func() {
		data := frame.MustNew(frame.NewNullableFloat("a", values, valid))

		Convey("When imputing the mean", func() {
			step, _ := transform.Impute([]string{"a"}, transform.Mean)
			f := run(data, []transform.Step{step})

			Convey("Then nulls take the mean of present values", func() {
				So(floats(f, "a"), ShouldResemble, []float64{1, 14.0 / 3.0, 3, 14.0 / 3.0, 10})
			})
		})

		Convey("When imputing the median", func() {
			step, _ := transform.Impute([]string{"a"}, transform.Median)
			f := run(data, []transform.Step{step})

			Convey("Then nulls take the median", func() {
				So(floats(f, "a"), ShouldResemble, []float64{1, 3, 3, 3, 10})
			})
		})

		Convey("When interpolating", func() {
			step, _ := transform.Impute([]string{"a"}, transform.Interpolate)
			f := run(data, []transform.Step{step})

			Convey("Then gaps are filled linearly", func() {
				So(floats(f, "a"), ShouldResemble, []float64{1, 2, 3, 6.5, 10})
			})
		})
	})

	Convey("Given a column with a leading null", t, func() {
		data := frame.MustNew(frame.NewNullableFloat("a", []float64{0, 2, 0}, []bool{false, true, false}))

		Convey("When forward filling", func() {
			step, _ := transform.Impute([]string{"a"}, transform.ForwardFill)
			f := run(data, []transform.Step{step})
			col, _ := f.Column("a")

			Convey("Then only nulls after a value are filled", func() {
				So(col.IsNull(0), ShouldBeTrue)
				So(col.IsNull(2), ShouldBeFalse)
				So(floats(f, "a")[2], ShouldEqual, 2)
			})
		})
	})
}

func TestPipelineOver(t *testing.T) {
	Convey("Given two time points with their own scales", t, func() {
		data := frame.MustNew(
			frame.NewFloat("time", []float64{1, 1, 2, 2}),
			frame.NewNullableFloat("a", []float64{0, 10, 100, 0}, []bool{true, true, true, false}),
		).Lazy()
		impute, _ := transform.Impute([]string{"a"}, transform.Mean)
		scale, _ := transform.Standardize([]string{"a"}, transform.MinMax)

		Convey("When running the pipeline per time point", func() {
			f := run(data, []transform.Step{impute, scale}, "time")

			Convey("Then each group is imputed and scaled independently", func() {
				So(floats(f, "a"), ShouldResemble, []float64{0, 1, 0, 0})
			})
		})

		Convey("When a column is missing", func() {
			_, err := transform.Pipeline(context.Background(), data, []transform.Step{impute}, "group")

			Convey("Then the pipeline fails before running", func() {
				So(errors.Is(err, frame.ErrColumnNotFound), ShouldBeTrue)
			})
		})
	})
}
