package survival

// Observation is one subject: a risk score, whether the event occurred and the
// event time (or censoring time when Event is false).
type Observation struct {
	Risk  float64
	Event bool
	Time  float64
}

// ExpandedRow pairs an observation with one evaluation horizon.
type ExpandedRow struct {
	Risk    float64
	Event   bool
	Time    float64
	Horizon float64
}

// TabulatedRow holds the confusion counts obtained by using Threshold (the
// originating observation's risk) as the decision cutoff at Horizon.
// TPCumulative and FPCumulative count positives and negatives whose risk is
// strictly greater than Threshold.
type TabulatedRow struct {
	Horizon      float64
	Threshold    float64
	TPCumulative int
	FPCumulative int
	TotalPos     int
	TotalNeg     int
}

// ROCRow is one point of a time-dependent ROC curve.
type ROCRow struct {
	Horizon   float64
	Threshold float64
	FPR       float64
	TPR       float64
}

// PRRow is one point of a time-dependent precision-recall curve.
type PRRow struct {
	Horizon    float64
	Threshold  float64
	Recall     float64
	Precision  float64
	Prevalence float64
}

// HorizonSummary describes the class balance at one horizon.
type HorizonSummary struct {
	Horizon    float64
	TotalPos   int
	TotalNeg   int
	Prevalence float64
}

// Degenerate reports whether the horizon has no positives or no negatives, in
// which case at least one rate is a division by zero.
func (h HorizonSummary) Degenerate() bool {
	return h.TotalPos == 0 || h.TotalNeg == 0
}

// CurveSet holds both curve views derived from a single tabulation.
type CurveSet struct {
	Horizons []HorizonSummary
	ROC      []ROCRow
	PR       []PRRow
}
