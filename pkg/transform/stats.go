package transform

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// safeDivide returns num/den, dividing by 1 when den is zero so constant
// columns scale to their offset instead of NaN.
func safeDivide(num, den float64) float64 {
	if den == 0 {
		den = 1
	}
	return num / den
}

func minMax(train []float64) (lo, spread float64) {
	lo, hi := floats.Min(train), floats.Max(train)
	return lo, hi - lo
}

// meanPopStd returns the mean and population (ddof=0) standard deviation.
func meanPopStd(train []float64) (mean, std float64) {
	mean, variance := stat.PopMeanVariance(train, nil)
	return mean, math.Sqrt(variance)
}

func mean(train []float64) float64 {
	return stat.Mean(train, nil)
}

func median(train []float64) float64 {
	sorted := append([]float64(nil), train...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// interpolate fills interior nulls linearly by position. Leading and trailing
// nulls stay null.
func interpolate(values []float64, valid []bool) {
	prev := -1
	for i := range values {
		if !valid[i] {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (values[i] - values[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev] + step*float64(j-prev)
				valid[j] = true
			}
		}
		prev = i
	}
}

// forwardFill carries the last present value over following nulls.
func forwardFill(values []float64, valid []bool) {
	last, seen := 0.0, false
	for i := range values {
		if valid[i] {
			last, seen = values[i], true
			continue
		}
		if seen {
			values[i] = last
			valid[i] = true
		}
	}
}
