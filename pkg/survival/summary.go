package survival

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// HorizonArea is a scalar curve summary at one horizon.
type HorizonArea struct {
	Horizon float64
	Area    float64
}

// AUC integrates each horizon's ROC curve with the trapezoidal rule. The
// curve is anchored at (0,0) and (1,1). Horizons with undefined rates get NaN.
// rows must be ordered by (horizon, threshold), as ROC returns them.
func AUC(rows []ROCRow) []HorizonArea {
	var out []HorizonArea
	for _, span := range horizonSpans(len(rows), func(i int) float64 { return rows[i].Horizon }) {
		group := rows[span[0]:span[1]]
		fpr := make([]float64, 0, len(group)+2)
		tpr := make([]float64, 0, len(group)+2)
		fpr, tpr = append(fpr, 0), append(tpr, 0)
		// Descending threshold gives non-decreasing rates.
		for i := len(group) - 1; i >= 0; i-- {
			fpr = append(fpr, group[i].FPR)
			tpr = append(tpr, group[i].TPR)
		}
		fpr, tpr = append(fpr, 1), append(tpr, 1)

		area := math.NaN()
		if !floats.HasNaN(fpr) && !floats.HasNaN(tpr) {
			area = integrate.Trapezoidal(fpr, tpr)
		}
		out = append(out, HorizonArea{Horizon: group[0].Horizon, Area: area})
	}
	return out
}

// AveragePrecision sums precision weighted by recall increments at each
// horizon, walking thresholds from high to low and closing the curve at
// recall 1 with precision equal to the prevalence.
// rows must be ordered by (horizon, threshold), as PR returns them.
func AveragePrecision(rows []PRRow) []HorizonArea {
	var out []HorizonArea
	for _, span := range horizonSpans(len(rows), func(i int) float64 { return rows[i].Horizon }) {
		group := rows[span[0]:span[1]]
		area, prevRecall := 0.0, 0.0
		for i := len(group) - 1; i >= 0; i-- {
			area += (group[i].Recall - prevRecall) * group[i].Precision
			prevRecall = group[i].Recall
		}
		area += (1 - prevRecall) * group[0].Prevalence
		out = append(out, HorizonArea{Horizon: group[0].Horizon, Area: area})
	}
	return out
}

// horizonSpans splits [0,n) into runs of equal horizon.
func horizonSpans(n int, horizon func(i int) float64) [][2]int {
	if n == 0 {
		return nil
	}
	var spans [][2]int
	start := 0
	for i := 1; i <= n; i++ {
		if i == n || !sameValue(horizon(i), horizon(start)) {
			spans = append(spans, [2]int{start, i})
			start = i
		}
	}
	return spans
}
