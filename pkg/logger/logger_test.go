package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get and Named return usable loggers", func() {
			So(Get(), ShouldNotBeNil)
			named := Named("test")
			So(named, ShouldNotBeNil)
			named.Info(context.Background(), "test message", String("k", "v"))
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat("json")), ShouldBeNil)
		log := Get().With(String("component", "test"))

		Convey("When logging with fields", func() {
			log.Info(context.Background(), "computed", Int("rows", 12), Error(errors.New("boom")))

			Convey("Then the record carries message, fields and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "computed")
				So(rec["component"], ShouldEqual, "test")
				So(rec["rows"], ShouldEqual, float64(12))
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given a text logger at warn level", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		So(SetLevelString("WARN"), ShouldBeNil)
		defer func() { _ = SetLevelString("info") }()

		Convey("Then info is suppressed and warn is written", func() {
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "shown")
			So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
			So(strings.Contains(buf.String(), "shown"), ShouldBeTrue)
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
