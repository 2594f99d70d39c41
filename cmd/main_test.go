package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/survcurve/internal/adapters/csvio"
	"github.com/okian/survcurve/internal/config"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/survival"
)

const cohortCSV = "id,risk,event,time,age\n" +
	"1,0.9,true,1,60\n" +
	"2,0.8,true,2,\n" +
	"3,0.3,false,3,50\n" +
	"4,0.1,true,4,40\n"

func writeCohort(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "cohort.csv")
	if err := os.WriteFile(path, []byte(cohortCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCurveCommands(t *testing.T) {
	convey.Convey("Given a cohort CSV", t, func() {
		input := writeCohort(t)

		convey.Convey("When running roc to stdout", func() {
			out, err := run("roc", "--input", input, "--horizon", "2.5")

			convey.Convey("Then the ROC table is printed as CSV", func() {
				convey.So(err, convey.ShouldBeNil)
				f, err := csvio.Read(context.Background(), strings.NewReader(out))
				convey.So(err, convey.ShouldBeNil)
				convey.So(f.Columns(), convey.ShouldResemble, survival.ROCColumns)
				convey.So(f.Height(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When running pr to a gzip file with two horizons", func() {
			output := filepath.Join(t.TempDir(), "pr.csv.gz")
			_, err := run("pr", "-i", input, "--horizon", "1.5,2.5", "-o", output)

			convey.Convey("Then the PR table covers both horizons", func() {
				convey.So(err, convey.ShouldBeNil)
				f, err := csvio.ReadFile(context.Background(), output)
				convey.So(err, convey.ShouldBeNil)
				convey.So(f.Columns(), convey.ShouldResemble, survival.PRColumns)
				convey.So(f.Height(), convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the input flag is missing", func() {
			_, err := run("roc", "--horizon", "1")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldEqual, errNoInput)
			})
		})

		convey.Convey("When no horizon is given", func() {
			_, err := run("roc", "-i", input)

			convey.Convey("Then the missing horizons are reported", func() {
				convey.So(errors.Is(err, survival.ErrNoHorizons), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPrepareCommand(t *testing.T) {
	convey.Convey("Given a cohort CSV", t, func() {
		input := writeCohort(t)

		convey.Convey("When splitting, imputing and scaling", func() {
			out, err := run("prepare", "-i", input,
				"--split", "train=0.5", "--split", "test=0.5", "--no-shuffle",
				"--impute", "age", "--scale", "age", "--scale-method", "minmax")

			convey.Convey("Then the split column is added and age is filled and scaled", func() {
				convey.So(err, convey.ShouldBeNil)
				f, err := csvio.Read(context.Background(), strings.NewReader(out))
				convey.So(err, convey.ShouldBeNil)
				convey.So(f.Has("split"), convey.ShouldBeTrue)
				age, _ := f.Column("age")
				convey.So(age.NullCount(), convey.ShouldEqual, 0)
				vals, _ := age.AsFloat64()
				// mean of 60, 50, 40 fills the gap, then min-max scaling
				convey.So(vals, convey.ShouldResemble, []float64{1, 0.5, 0.5, 0})
				split, _ := f.Column("split")
				labels, _ := split.Strings()
				convey.So(labels, convey.ShouldResemble, []string{"train", "train", "test", "test"})
			})
		})

		convey.Convey("When a split flag is malformed", func() {
			_, err := run("prepare", "-i", input, "--split", "train")

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, errSplitFlag), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When parsing split specs", func() {
			splits, err := parseSplits([]string{"a=0.7", "b=0.3"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(splits, convey.ShouldHaveLength, 2)
			convey.So(splits[1].Name, convey.ShouldEqual, "b")
			convey.So(splits[1].Fraction, convey.ShouldEqual, 0.3)
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a configured app and a local listener", t, func() {
		convey.So(logger.Init(logger.WithWriter(io.Discard)), convey.ShouldBeNil)
		a := &app{cfg: config.New(), log: logger.Get()}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- a.serve(ctx, ln) }()

		convey.Convey("Then it answers health checks and shuts down on cancel", func() {
			url := fmt.Sprintf("http://%s/healthz", ln.Addr())
			var resp *http.Response
			for i := 0; i < 50; i++ {
				if resp, err = http.Get(url); err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("server did not stop")
			}
		})
	})
}
