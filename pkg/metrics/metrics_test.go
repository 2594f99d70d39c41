package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithPrometheusRegistry(registry),
			WithNamespace("test"),
			WithHistogramBuckets([]float64{1, 10, 100}),
		)

		Convey("When curves are recorded", func() {
			So(m.RecordCurve(KindROC), ShouldBeNil)
			So(m.RecordCurve(KindROC), ShouldBeNil)
			So(m.RecordCurve(KindPR), ShouldBeNil)

			Convey("Then counts are kept per kind", func() {
				So(testutil.ToFloat64(m.curvesComputed.WithLabelValues(KindROC)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.curvesComputed.WithLabelValues(KindPR)), ShouldEqual, 1)
			})
		})

		Convey("When an unknown kind is recorded", func() {
			err := m.RecordCurve("lift")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
			})
		})

		Convey("When horizons are recorded", func() {
			m.RecordHorizon(false, false)
			m.RecordHorizon(true, false)
			m.RecordHorizon(false, true)

			Convey("Then degenerate horizons are counted by reason", func() {
				So(testutil.ToFloat64(m.horizonsEvaluated), ShouldEqual, 3)
				So(testutil.ToFloat64(m.degenerateHorizons.WithLabelValues("no_positives")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.degenerateHorizons.WithLabelValues("no_negatives")), ShouldEqual, 1)
			})
		})

		Convey("When rows, latency, requests and errors are recorded", func() {
			m.RecordRowsTabulated(7)
			m.RecordEvaluationLatency(3.5)
			m.RecordHTTPRequest("/v1/curves/roc", "POST", "200", 12)
			m.RecordError("invalid_input")
			m.AddInflight(1)
			m.AddInflight(-1)

			Convey("Then the registry exposes them", func() {
				So(testutil.ToFloat64(m.rowsTabulated), ShouldEqual, 7)
				So(testutil.ToFloat64(m.errors.WithLabelValues("invalid_input")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.inflight), ShouldEqual, 0)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_evaluation_latency_milliseconds"], ShouldBeTrue)
				So(names["test_http_requests_total"], ShouldBeTrue)
			})
		})
	})

	Convey("Given the global manager", t, func() {
		Convey("Then it is registered on the custom registry", func() {
			So(Global(), ShouldNotBeNil)
			So(GetRegistry(), ShouldNotBeNil)
			Global().RecordRowsTabulated(1)
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
