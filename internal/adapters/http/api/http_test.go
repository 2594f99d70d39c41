package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/survcurve/internal/adapters/http/api"
	service "github.com/okian/survcurve/internal/app"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/metrics"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const cohortBody = `{
	"columns": {
		"risk":  [0.9, 0.8, 0.3, 0.1],
		"event": [true, true, false, true],
		"time":  [1, 2, 3, 4]
	},
	"horizons": [2.5]
}`

func newHandler(opts ...api.Option) http.Handler {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	svc := service.New(service.WithMetrics(m), service.WithLimits(10, 100))
	return api.NewServer(svc, svc, append([]api.Option{api.WithMetrics(m)}, opts...)...).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCurvesEndpoint(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newHandler()

		Convey("When posting a cohort to /v1/curves/all", func() {
			rec := do(h, http.MethodPost, "/v1/curves/all", cohortBody)

			Convey("Then both curves are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["kind"], ShouldEqual, "all")
				So(body["roc"], ShouldHaveLength, 4)
				So(body["pr"], ShouldHaveLength, 4)
				horizons := body["horizons"].([]any)
				So(horizons, ShouldHaveLength, 1)
				So(horizons[0].(map[string]any)["positives"], ShouldEqual, float64(2))
			})
		})

		Convey("When posting to /v1/curves/roc", func() {
			rec := do(h, http.MethodPost, "/v1/curves/roc", cohortBody)

			Convey("Then only ROC output is present", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["roc"], ShouldNotBeNil)
				_, hasPR := body["pr"]
				So(hasPR, ShouldBeFalse)
			})
		})

		Convey("When a horizon has no negatives", func() {
			rec := do(h, http.MethodPost, "/v1/curves/roc", `{
				"columns": {"risk": [0.2, 0.7], "event": [1, 1], "time": [1, 2]},
				"horizons": [10]
			}`)

			Convey("Then the undefined rates are encoded as null", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body struct {
					ROC []map[string]any `json:"roc"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body.ROC, ShouldHaveLength, 2)
				So(body.ROC[0]["fpr"], ShouldBeNil)
				So(body.ROC[0]["tpr"], ShouldEqual, 0.5)
			})
		})

		Convey("When the caller sends a request ID", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/curves/pr", strings.NewReader(cohortBody))
			req.Header.Set(api.RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then it is echoed back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
			})
		})
	})
}

func TestCurvesEndpointErrors(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newHandler(api.WithMaxBodyBytes(1024))

		cases := []struct {
			name   string
			path   string
			body   string
			status int
			code   string
		}{
			{"an unknown kind", "/v1/curves/lift", cohortBody, http.StatusNotFound, "not_found"},
			{"malformed JSON", "/v1/curves/roc", `{"columns":`, http.StatusBadRequest, "bad_request"},
			{"mixed column types", "/v1/curves/roc", `{"columns":{"risk":[1,"a"]},"horizons":[1]}`, http.StatusBadRequest, "bad_request"},
			{"a missing column", "/v1/curves/roc", `{"columns":{"risk":[1]},"horizons":[1]}`, http.StatusBadRequest, "missing_column"},
			{"no horizons", "/v1/curves/roc", `{"columns":{"risk":[1],"event":[true],"time":[1]},"horizons":[]}`, http.StatusBadRequest, "invalid_input"},
			{"a null risk", "/v1/curves/roc", `{"columns":{"risk":[null],"event":[true],"time":[1]},"horizons":[2]}`, http.StatusBadRequest, "invalid_input"},
			{"too many horizons", "/v1/curves/roc", `{"columns":{"risk":[1],"event":[true],"time":[1]},"horizons":[1,2,3,4,5,6,7,8,9,10,11]}`, http.StatusRequestEntityTooLarge, "limit"},
			{"an oversized body", "/v1/curves/roc", `{"columns":{"risk":[` + strings.Repeat("1,", 600) + `1]}}`, http.StatusRequestEntityTooLarge, "too_large"},
		}
		for _, tc := range cases {
			Convey("When posting "+tc.name, func() {
				rec := do(h, http.MethodPost, tc.path, tc.body)

				Convey("Then an error body with the matching code is returned", func() {
					So(rec.Code, ShouldEqual, tc.status)
					var body map[string]string
					So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
					So(body["code"], ShouldEqual, tc.code)
					So(body["message"], ShouldNotBeEmpty)
				})
			})
		}
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newHandler()

		Convey("Then /healthz reports ok", func() {
			rec := do(h, http.MethodGet, "/healthz", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /stats reflects evaluations", func() {
			So(do(h, http.MethodPost, "/v1/curves/roc", cohortBody).Code, ShouldEqual, http.StatusOK)
			rec := do(h, http.MethodGet, "/stats", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["evaluations"], ShouldEqual, float64(1))
		})

		Convey("Then /metrics serves the Prometheus registry", func() {
			rec := do(h, http.MethodGet, "/metrics", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the OpenAPI document is served", func() {
			rec := do(h, http.MethodGet, "/openapi.yaml", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "/v1/curves/{kind}")
		})

		Convey("Then GET on a curves route is not allowed", func() {
			rec := do(h, http.MethodGet, "/v1/curves/roc", "")
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
