package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/survcurve/internal/adapters/csvio"
	"github.com/okian/survcurve/pkg/frame"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/preprocess"
	"github.com/okian/survcurve/pkg/split"
	"github.com/okian/survcurve/pkg/transform"
)

var errSplitFlag = errors.New("split must look like name=fraction")

type prepareFlags struct {
	input, output string

	requireAny   []string
	nullCutoff   float64
	dropConstant bool
	splits       []string
	splitBy      []string
	stratifyBy   []string
	seed         int64
	noShuffle    bool
	fitOn        string
	over         []string
	impute       []string
	imputeMethod string
	scale        []string
	scaleMethod  string
}

func newPrepareCmd(a *app) *cobra.Command {
	var f prepareFlags
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Clean, split, impute and standardize a CSV dataset",
		Example: "  survcurve prepare -i raw.csv -o ready.csv --split train=0.8 --split test=0.2 \\\n" +
			"    --split-by patient --impute age --scale age,bmi --fit-on train",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPrepare(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input CSV")
	fl.StringVarP(&f.output, "output", "o", "-", "output CSV, - for stdout")
	fl.StringSliceVar(&f.requireAny, "drop-empty-rows", nil, "drop rows where all of these columns are null")
	fl.Float64Var(&f.nullCutoff, "null-cutoff", 0, "drop columns whose null fraction is not below this (0 disables)")
	fl.BoolVar(&f.dropConstant, "drop-constant", false, "drop non-numeric and near-constant columns")
	fl.StringSliceVar(&f.splits, "split", nil, "split as name=fraction, repeatable")
	fl.StringSliceVar(&f.splitBy, "split-by", nil, "keep rows sharing these columns in one split")
	fl.StringSliceVar(&f.stratifyBy, "stratify", nil, "stratify splits by these columns")
	fl.Int64Var(&f.seed, "seed", 0, "shuffle seed")
	fl.BoolVar(&f.noShuffle, "no-shuffle", false, "assign splits in order of appearance")
	fl.StringVar(&f.fitOn, "fit-on", "", "fit imputation and scaling on this split only")
	fl.StringSliceVar(&f.over, "over", nil, "fit imputation and scaling per group of these columns")
	fl.StringSliceVar(&f.impute, "impute", nil, "columns to impute")
	fl.StringVar(&f.imputeMethod, "impute-method", string(transform.Mean), "mean, median, interpolate or ffill")
	fl.StringSliceVar(&f.scale, "scale", nil, "columns to standardize")
	fl.StringVar(&f.scaleMethod, "scale-method", string(transform.ZScore), "zscore or minmax")
	return cmd
}

func (a *app) runPrepare(cmd *cobra.Command, f prepareFlags) error {
	ctx := cmd.Context()
	if f.input == "" {
		return errNoInput
	}
	data, err := csvio.ReadFile(ctx, f.input)
	if err != nil {
		return err
	}

	// Build a deferred plan and realize it once at the end.
	var src frame.Source = data.Lazy()
	if len(f.requireAny) > 0 {
		if src, err = preprocess.FilterNullRows(ctx, src, f.requireAny...); err != nil {
			return err
		}
	}
	if f.nullCutoff > 0 {
		if src, err = preprocess.DropNullColumns(ctx, src, f.nullCutoff); err != nil {
			return err
		}
	}
	if f.dropConstant {
		if src, err = preprocess.DropLowVariance(ctx, src, preprocess.DefaultVarianceCutoff); err != nil {
			return err
		}
	}

	splitName := "split"
	if len(f.splits) > 0 {
		splits, err := parseSplits(f.splits)
		if err != nil {
			return err
		}
		src, err = split.Assign(ctx, src, splits,
			split.By(f.splitBy...),
			split.StratifyBy(f.stratifyBy...),
			split.WithSeed(f.seed),
			split.WithShuffle(!f.noShuffle),
			split.WithName(splitName),
			split.WithLogger(a.log),
		)
		if err != nil {
			return err
		}
	}

	var stepOpts []transform.StepOption
	if f.fitOn != "" {
		stepOpts = append(stepOpts, transform.WithTrain(splitName, f.fitOn))
	}
	var steps []transform.Step
	if len(f.impute) > 0 {
		s, err := transform.Impute(f.impute, transform.Method(f.imputeMethod), stepOpts...)
		if err != nil {
			return err
		}
		steps = append(steps, s)
	}
	if len(f.scale) > 0 {
		s, err := transform.Standardize(f.scale, transform.Method(f.scaleMethod), stepOpts...)
		if err != nil {
			return err
		}
		steps = append(steps, s)
	}
	if len(steps) > 0 {
		if src, err = transform.Pipeline(ctx, src, steps, f.over...); err != nil {
			return err
		}
	}

	out, err := frame.CollectIfLazy(ctx, src)
	if err != nil {
		return err
	}
	a.log.Info(ctx, "dataset prepared",
		logger.Int("rows_in", data.Height()),
		logger.Int("rows_out", out.Height()),
		logger.Int("columns", out.Width()),
	)
	return writeOutput(cmd, f.output, out)
}

func parseSplits(specs []string) ([]split.Split, error) {
	out := make([]split.Split, 0, len(specs))
	for _, s := range specs {
		name, frac, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q: %w", s, errSplitFlag)
		}
		v, err := strconv.ParseFloat(frac, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, errSplitFlag)
		}
		out = append(out, split.Split{Name: name, Fraction: v})
	}
	return out, nil
}
