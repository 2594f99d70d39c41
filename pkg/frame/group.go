package frame

// Group is the set of row indices sharing one composite key.
type Group struct {
	Key  string
	Rows []int
}

// GroupBy partitions the rows of f by the given columns. Groups are returned in
// order of first appearance. Rows with a null key part form their own group
// with the empty key. With no columns, every row belongs to a single group.
func GroupBy(f *Frame, columns ...string) ([]Group, error) {
	if len(columns) == 0 {
		rows := make([]int, f.Height())
		for i := range rows {
			rows[i] = i
		}
		return []Group{{Rows: rows}}, nil
	}
	keys, err := rowKeys(f, columns)
	if err != nil {
		return nil, err
	}
	var groups []Group
	pos := make(map[string]int)
	for i, k := range keys {
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: k})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}
