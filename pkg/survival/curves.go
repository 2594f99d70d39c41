// Package survival computes time-dependent ROC and precision-recall curves for
// risk scores evaluated against censored event times.
//
// At horizon h an observation is a positive when its event occurred strictly
// before h and a negative when its time is strictly after h; observations
// censored at or before h count as neither. Every observation's risk is used as
// a threshold, and an observation is predicted positive when its risk is
// strictly greater than the threshold.
//
// Horizons with no positives or no negatives are not errors: the affected rates
// are divisions by zero and come back as NaN or +Inf.
//
// Each listed horizon is its own partition: a horizon given twice yields two
// identical, independent blocks of rows rather than one merged group.
package survival

import "context"

// precisionWithoutPredictions is reported when nothing scores above the threshold.
const precisionWithoutPredictions = 1.0

// divide returns num/den, letting a zero denominator produce NaN or ±Inf.
func divide(num, den float64) float64 {
	return num / den
}

// safeDivide returns num/den, or guard when den is zero.
func safeDivide(num, den, guard float64) float64 {
	if den == 0 {
		return guard
	}
	return num / den
}

// ROC returns the time-dependent ROC table ordered by (horizon, threshold).
func ROC(ctx context.Context, obs []Observation, horizons []float64, opts ...Option) ([]ROCRow, error) {
	parts, err := tabulate(ctx, obs, horizons, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	return rocRows(parts), nil
}

// PR returns the time-dependent precision-recall table ordered by
// (horizon, threshold).
func PR(ctx context.Context, obs []Observation, horizons []float64, opts ...Option) ([]PRRow, error) {
	parts, err := tabulate(ctx, obs, horizons, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	return prRows(parts), nil
}

// Curves computes both tables from one shared tabulation.
func Curves(ctx context.Context, obs []Observation, horizons []float64, opts ...Option) (*CurveSet, error) {
	parts, err := tabulate(ctx, obs, horizons, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	set := &CurveSet{
		Horizons: make([]HorizonSummary, len(parts)),
		ROC:      rocRows(parts),
		PR:       prRows(parts),
	}
	for i, p := range parts {
		set.Horizons[i] = p.summary()
	}
	return set, nil
}

func rocRows(parts []partition) []ROCRow {
	out := make([]ROCRow, 0, countRows(parts))
	for _, p := range parts {
		for _, r := range p.rows {
			out = append(out, r.ROC())
		}
	}
	return out
}

func prRows(parts []partition) []PRRow {
	out := make([]PRRow, 0, countRows(parts))
	for _, p := range parts {
		// One prevalence per horizon, broadcast to all of its rows.
		prevalence := p.summary().Prevalence
		for _, r := range p.rows {
			row := r.PR()
			row.Prevalence = prevalence
			out = append(out, row)
		}
	}
	return out
}

func countRows(parts []partition) int {
	n := 0
	for _, p := range parts {
		n += len(p.rows)
	}
	return n
}

// ROC projects the row onto false- and true-positive rates.
func (r TabulatedRow) ROC() ROCRow {
	return ROCRow{
		Horizon:   r.Horizon,
		Threshold: r.Threshold,
		FPR:       divide(float64(r.FPCumulative), float64(r.TotalNeg)),
		TPR:       divide(float64(r.TPCumulative), float64(r.TotalPos)),
	}
}

// PR projects the row onto recall, precision and prevalence.
func (r TabulatedRow) PR() PRRow {
	predicted := float64(r.TPCumulative + r.FPCumulative)
	return PRRow{
		Horizon:    r.Horizon,
		Threshold:  r.Threshold,
		Recall:     divide(float64(r.TPCumulative), float64(r.TotalPos)),
		Precision:  safeDivide(float64(r.TPCumulative), predicted, precisionWithoutPredictions),
		Prevalence: divide(float64(r.TotalPos), float64(r.TotalPos+r.TotalNeg)),
	}
}
