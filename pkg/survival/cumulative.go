package survival

// CumulativeCounter holds inclusive running counts of an indicator over one
// ordered partition, plus the partition total.
type CumulativeCounter struct {
	running []int
	total   int
}

// NewCumulativeCounter counts hits in a single forward pass. hit(i) is
// evaluated once per position, in order.
func NewCumulativeCounter(n int, hit func(i int) bool) CumulativeCounter {
	running := make([]int, n)
	total := 0
	for i := 0; i < n; i++ {
		if hit(i) {
			total++
		}
		running[i] = total
	}
	return CumulativeCounter{running: running, total: total}
}

// Len returns the partition length.
func (c CumulativeCounter) Len() int { return len(c.running) }

// Total returns the number of hits in the partition.
func (c CumulativeCounter) Total() int { return c.total }

// Through returns the number of hits at positions 0..i inclusive.
func (c CumulativeCounter) Through(i int) int { return c.running[i] }

// Above returns the number of hits after position i.
func (c CumulativeCounter) Above(i int) int { return c.total - c.running[i] }
