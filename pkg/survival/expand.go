package survival

// Expand cross-joins the observations with the horizons, producing one row per
// (horizon, observation) pair in horizon-major order. Nothing is sorted,
// filtered or deduplicated.
func Expand(obs []Observation, horizons []float64) ([]ExpandedRow, error) {
	if len(horizons) == 0 {
		return nil, ErrNoHorizons
	}
	rows := make([]ExpandedRow, 0, len(obs)*len(horizons))
	for _, h := range horizons {
		for _, o := range obs {
			rows = append(rows, ExpandedRow{Risk: o.Risk, Event: o.Event, Time: o.Time, Horizon: h})
		}
	}
	return rows, nil
}

// IsPositive reports whether the row had its event strictly before the horizon.
func (r ExpandedRow) IsPositive() bool {
	return r.Event && r.Time < r.Horizon
}

// IsNegative reports whether the row is known event-free past the horizon.
// Rows censored at or before the horizon are neither positive nor negative.
func (r ExpandedRow) IsNegative() bool {
	return r.Time > r.Horizon
}
