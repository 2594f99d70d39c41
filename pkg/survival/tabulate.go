package survival

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// partition is the tabulation of one horizon entry.
type partition struct {
	horizon  float64
	totalPos int
	totalNeg int
	rows     []TabulatedRow
}

func (p partition) summary() HorizonSummary {
	return HorizonSummary{
		Horizon:    p.horizon,
		TotalPos:   p.totalPos,
		TotalNeg:   p.totalNeg,
		Prevalence: divide(float64(p.totalPos), float64(p.totalPos+p.totalNeg)),
	}
}

// Tabulate computes, for every horizon and every observation used as a
// threshold, how many positives and negatives score strictly above it.
// Rows are ordered by ascending (horizon, threshold).
func Tabulate(ctx context.Context, obs []Observation, horizons []float64, opts ...Option) ([]TabulatedRow, error) {
	parts, err := tabulate(ctx, obs, horizons, applyOptions(opts))
	if err != nil {
		return nil, err
	}
	rows := make([]TabulatedRow, 0, countRows(parts))
	for _, p := range parts {
		rows = append(rows, p.rows...)
	}
	return rows, nil
}

// tabulate expands obs across horizons and tabulates each horizon entry as an
// independent partition. Duplicate horizons produce duplicate partitions.
func tabulate(ctx context.Context, obs []Observation, horizons []float64, o options) ([]partition, error) {
	expanded, err := Expand(obs, horizons)
	if err != nil {
		return nil, err
	}
	n := len(obs)

	// Every partition holds the same observations in the same order, so one
	// stable risk ordering serves all of them.
	order := riskOrder(obs)

	parts := make([]partition, len(horizons))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for k := range horizons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[k] = tabulatePartition(horizons[k], expanded[k*n:(k+1)*n], order, o.tieMode)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return lessNaNLast(parts[i].horizon, parts[j].horizon)
	})
	return parts, nil
}

// tabulatePartition runs the ascending cumulative pass over one horizon.
func tabulatePartition(h float64, rows []ExpandedRow, order []int, mode TieMode) partition {
	p := partition{horizon: h}
	pos := NewCumulativeCounter(len(order), func(i int) bool { return rows[order[i]].IsPositive() })
	neg := NewCumulativeCounter(len(order), func(i int) bool { return rows[order[i]].IsNegative() })
	p.totalPos, p.totalNeg = pos.Total(), neg.Total()

	p.rows = make([]TabulatedRow, 0, len(order))
	for i, idx := range order {
		risk := rows[idx].Risk
		if mode == TieDistinct && i+1 < len(order) && sameValue(risk, rows[order[i+1]].Risk) {
			continue
		}
		p.rows = append(p.rows, TabulatedRow{
			Horizon:      p.horizon,
			Threshold:    risk,
			TPCumulative: pos.Above(i),
			FPCumulative: neg.Above(i),
			TotalPos:     p.totalPos,
			TotalNeg:     p.totalNeg,
		})
	}
	return p
}

// riskOrder returns observation indices stably sorted by ascending risk, NaN last.
func riskOrder(obs []Observation) []int {
	order := make([]int, len(obs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return lessNaNLast(obs[order[i]].Risk, obs[order[j]].Risk)
	})
	return order
}

func lessNaNLast(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

func sameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
