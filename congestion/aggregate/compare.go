package aggregate

import "github.com/inference-sim/tcp-trace-analyzer/congestion"

// comparedMetrics lists the summary metrics used in a policy comparison and
// whether a larger value is better.
var comparedMetrics = []struct {
	name           congestion.MetricName
	higherIsBetter bool
}{
	{congestion.MetricAvgThroughput, true},
	{congestion.MetricLossRate, false},
	{congestion.MetricAvgDelay, false},
	{congestion.MetricTimeouts, false},
	{congestion.MetricFastRetransmits, false},
}

// Comparison is one metric compared between two datasets. A and B are nil
// when the metric is absent from that dataset's summary.
type Comparison struct {
	Metric         congestion.MetricName `json:"metric"`
	A              *float64              `json:"a,omitempty"`
	B              *float64              `json:"b,omitempty"`
	HigherIsBetter bool                  `json:"higher_is_better"`
	Winner         string                `json:"winner,omitempty"` // label of the better dataset; empty if tied or unknown
}

// Compare compares the summary metrics of a and b.
func Compare(a, b *congestion.Dataset) []Comparison {
	sa, sb := a.Summary(), b.Summary()
	out := make([]Comparison, 0, len(comparedMetrics))
	for _, m := range comparedMetrics {
		c := Comparison{Metric: m.name, HigherIsBetter: m.higherIsBetter}
		va, okA := sa.Get(m.name)
		vb, okB := sb.Get(m.name)
		if okA {
			c.A = &va
		}
		if okB {
			c.B = &vb
		}
		if okA && okB && va != vb {
			if (va > vb) == m.higherIsBetter {
				c.Winner = a.Label()
			} else {
				c.Winner = b.Label()
			}
		}
		out = append(out, c)
	}
	return out
}
