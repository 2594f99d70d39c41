package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/survcurve/internal/adapters/csvio"
	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/survival"
)

const (
	curveROC = "roc"
	curvePR  = "pr"
)

var errNoInput = errors.New("--input is required")

type curveFlags struct {
	input    string
	output   string
	horizons []float64
	cols     survival.Columns
	tieMode  string
}

func newCurveCmd(a *app, kind string) *cobra.Command {
	var f curveFlags
	short := map[string]string{
		curveROC: "Write the time-dependent ROC table of a CSV dataset",
		curvePR:  "Write the time-dependent precision-recall table of a CSV dataset",
	}[kind]
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Example: fmt.Sprintf("  survcurve %s --input cohort.csv.gz --horizon 365 --horizon 730 --output %s.csv",
			kind, kind),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCurve(cmd, kind, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input CSV (.gz and .zst are decompressed)")
	fl.StringVarP(&f.output, "output", "o", "-", "output CSV, - for stdout")
	fl.Float64SliceVar(&f.horizons, "horizon", nil, "evaluation horizon, repeatable")
	fl.StringVar(&f.cols.Risk, "risk", "", "risk score column (defaults to the configured risk_column)")
	fl.StringVar(&f.cols.Event, "event", "", "event indicator column")
	fl.StringVar(&f.cols.Time, "time", "", "event or censoring time column")
	fl.StringVar(&f.tieMode, "tie-mode", "", "stable or distinct (defaults to the configured tie_mode)")
	return cmd
}

func (a *app) runCurve(cmd *cobra.Command, kind string, f curveFlags) error {
	ctx := cmd.Context()
	if f.input == "" {
		return errNoInput
	}
	cols := f.cols
	if cols.Risk == "" {
		cols.Risk = a.cfg.RiskColumn
	}
	if cols.Event == "" {
		cols.Event = a.cfg.EventColumn
	}
	if cols.Time == "" {
		cols.Time = a.cfg.TimeColumn
	}
	tie := f.tieMode
	if tie == "" {
		tie = a.cfg.TieMode
	}
	mode, err := survival.ParseTieMode(tie)
	if err != nil {
		return err
	}

	data, err := csvio.ReadFile(ctx, f.input)
	if err != nil {
		return err
	}
	opts := []survival.Option{survival.WithTieMode(mode), survival.WithWorkers(a.cfg.Workers)}
	var src frame.Source
	if kind == curveROC {
		src, err = survival.ROCFrame(ctx, data, cols, f.horizons, opts...)
	} else {
		src, err = survival.PRFrame(ctx, data, cols, f.horizons, opts...)
	}
	if err != nil {
		return err
	}
	out, err := frame.CollectIfLazy(ctx, src)
	if err != nil {
		return err
	}
	a.log.Info(ctx, "curve computed",
		logger.String("kind", kind),
		logger.Int("observations", data.Height()),
		logger.Int("horizons", len(f.horizons)),
		logger.Int("rows", out.Height()),
	)
	return writeOutput(cmd, f.output, out)
}

func writeOutput(cmd *cobra.Command, path string, f *frame.Frame) error {
	if path == "" || path == "-" {
		return csvio.Write(cmd.OutOrStdout(), f)
	}
	return csvio.WriteFile(path, f)
}
