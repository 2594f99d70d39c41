package survival

import (
	"context"
	"fmt"

	"github.com/okian/survcurve/pkg/frame"
)

// Output column names.
const (
	ColHorizon    = "horizon"
	ColThreshold  = "threshold"
	ColFPR        = "fpr"
	ColTPR        = "tpr"
	ColRecall     = "recall"
	ColPrecision  = "precision"
	ColPrevalence = "prevalence"
)

// ROCColumns is the schema of ROC output frames.
var ROCColumns = []string{ColHorizon, ColThreshold, ColFPR, ColTPR}

// PRColumns is the schema of PR output frames.
var PRColumns = []string{ColHorizon, ColThreshold, ColRecall, ColPrecision, ColPrevalence}

// Columns names the input columns holding risk, event indicator and time.
type Columns struct {
	Risk  string
	Event string
	Time  string
}

func (c Columns) names() []string { return []string{c.Risk, c.Event, c.Time} }

// Observations reads the named columns of f. The event column may be bool or
// numeric, where non-zero means the event occurred.
func Observations(f *frame.Frame, cols Columns) ([]Observation, error) {
	risk, err := requiredFloats(f, cols.Risk)
	if err != nil {
		return nil, err
	}
	tm, err := requiredFloats(f, cols.Time)
	if err != nil {
		return nil, err
	}
	ev, err := f.Column(cols.Event)
	if err != nil {
		return nil, err
	}
	if ev.NullCount() > 0 {
		return nil, fmt.Errorf("%q: %w", cols.Event, ErrNullValue)
	}
	events, err := ev.AsBool()
	if err != nil {
		return nil, err
	}
	obs := make([]Observation, f.Height())
	for i := range obs {
		obs[i] = Observation{Risk: risk[i], Event: events[i], Time: tm[i]}
	}
	return obs, nil
}

func requiredFloats(f *frame.Frame, name string) ([]float64, error) {
	s, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if s.NullCount() > 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrNullValue)
	}
	return s.AsFloat64()
}

// ROCFrame computes the ROC table from a dataset. Missing columns and an empty
// horizon list fail immediately, even for deferred inputs. The output is eager
// for an eager input and deferred for a deferred one.
func ROCFrame(ctx context.Context, src frame.Source, cols Columns, horizons []float64, opts ...Option) (frame.Source, error) {
	if err := checkInput(src, cols, horizons); err != nil {
		return nil, err
	}
	horizons = append([]float64(nil), horizons...)
	return frame.Map(ctx, src, ROCColumns, func(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
		obs, err := Observations(f, cols)
		if err != nil {
			return nil, err
		}
		rows, err := ROC(ctx, obs, horizons, opts...)
		if err != nil {
			return nil, err
		}
		return ROCToFrame(rows), nil
	})
}

// PRFrame computes the precision-recall table from a dataset, with the same
// validation and realization rules as ROCFrame.
func PRFrame(ctx context.Context, src frame.Source, cols Columns, horizons []float64, opts ...Option) (frame.Source, error) {
	if err := checkInput(src, cols, horizons); err != nil {
		return nil, err
	}
	horizons = append([]float64(nil), horizons...)
	return frame.Map(ctx, src, PRColumns, func(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
		obs, err := Observations(f, cols)
		if err != nil {
			return nil, err
		}
		rows, err := PR(ctx, obs, horizons, opts...)
		if err != nil {
			return nil, err
		}
		return PRToFrame(rows), nil
	})
}

func checkInput(src frame.Source, cols Columns, horizons []float64) error {
	if err := frame.RequireColumns(src, cols.names()...); err != nil {
		return err
	}
	if len(horizons) == 0 {
		return ErrNoHorizons
	}
	return nil
}

// ROCToFrame converts ROC rows to a long-form frame.
func ROCToFrame(rows []ROCRow) *frame.Frame {
	h, t, fpr, tpr := make([]float64, len(rows)), make([]float64, len(rows)), make([]float64, len(rows)), make([]float64, len(rows))
	for i, r := range rows {
		h[i], t[i], fpr[i], tpr[i] = r.Horizon, r.Threshold, r.FPR, r.TPR
	}
	return frame.MustNew(
		frame.NewFloat(ColHorizon, h),
		frame.NewFloat(ColThreshold, t),
		frame.NewFloat(ColFPR, fpr),
		frame.NewFloat(ColTPR, tpr),
	)
}

// PRToFrame converts PR rows to a long-form frame.
func PRToFrame(rows []PRRow) *frame.Frame {
	n := len(rows)
	h, t, rec, prec, prev := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, r := range rows {
		h[i], t[i], rec[i], prec[i], prev[i] = r.Horizon, r.Threshold, r.Recall, r.Precision, r.Prevalence
	}
	return frame.MustNew(
		frame.NewFloat(ColHorizon, h),
		frame.NewFloat(ColThreshold, t),
		frame.NewFloat(ColRecall, rec),
		frame.NewFloat(ColPrecision, prec),
		frame.NewFloat(ColPrevalence, prev),
	)
}
