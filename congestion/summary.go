package congestion

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
)

// MetricName names a value extracted from a summary report.
type MetricName string

const (
	MetricTotalThroughput MetricName = "total_throughput" // Mbps
	MetricAvgThroughput   MetricName = "avg_throughput"   // Mbps per flow
	MetricTotalTx         MetricName = "total_tx"
	MetricTotalRx         MetricName = "total_rx"
	MetricTotalLost       MetricName = "total_lost"
	MetricLossRate        MetricName = "loss_rate" // percent
	MetricAvgDelay        MetricName = "avg_delay" // ms
	MetricStateChanges    MetricName = "state_changes"
	MetricDupAcks         MetricName = "dup_acks"
	MetricFastRetransmits MetricName = "fast_retransmits"
	MetricFastRecoveries  MetricName = "fast_recoveries"
	MetricTimeouts        MetricName = "timeouts"
)

// summaryPatterns maps each metric to a regexp whose first group is the value.
// Patterns are matched independently; order does not matter.
var summaryPatterns = map[MetricName]*regexp.Regexp{
	MetricTotalThroughput: regexp.MustCompile(`Total Throughput:\s+([\d.]+)\s+Mbps`),
	MetricAvgThroughput:   regexp.MustCompile(`Average Throughput per Flow:\s+([\d.]+)\s+Mbps`),
	MetricTotalTx:         regexp.MustCompile(`Total Packets Sent:\s+(\d+)`),
	MetricTotalRx:         regexp.MustCompile(`Total Packets Received:\s+(\d+)`),
	MetricTotalLost:       regexp.MustCompile(`Total Lost Packets:\s+(\d+)`),
	MetricLossRate:        regexp.MustCompile(`Total Lost Packets:.*?\(([\d.]+)%\)`),
	MetricAvgDelay:        regexp.MustCompile(`Average Delay:\s+([\d.]+)\s+ms`),
	MetricStateChanges:    regexp.MustCompile(`Total State Changes:\s+(\d+)`),
	MetricDupAcks:         regexp.MustCompile(`Total Duplicate ACKs:\s+(\d+)`),
	MetricFastRetransmits: regexp.MustCompile(`Total Fast Retransmits:\s+(\d+)`),
	MetricFastRecoveries:  regexp.MustCompile(`Total Fast Recoveries:\s+(\d+)`),
	MetricTimeouts:        regexp.MustCompile(`Total Timeouts:\s+(\d+)`),
}

// KnownMetrics returns every metric the parser can extract, sorted by name.
func KnownMetrics() []MetricName {
	names := make([]MetricName, 0, len(summaryPatterns))
	for name := range summaryPatterns {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// SummaryMetrics holds the metrics found in a summary report. A metric that
// was never reported is absent, which is different from a reported zero.
// The zero value is an empty, usable set.
type SummaryMetrics struct {
	values map[MetricName]float64
}

// NewSummaryMetrics copies values into a SummaryMetrics.
func NewSummaryMetrics(values map[MetricName]float64) SummaryMetrics {
	m := SummaryMetrics{values: make(map[MetricName]float64, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get returns the metric value and whether it was present.
func (m SummaryMetrics) Get(name MetricName) (float64, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Has reports whether the metric was present.
func (m SummaryMetrics) Has(name MetricName) bool {
	_, ok := m.values[name]
	return ok
}

func (m SummaryMetrics) Len() int { return len(m.values) }

// Names returns the present metric names, sorted.
func (m SummaryMetrics) Names() []MetricName {
	names := make([]MetricName, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Map returns a copy of the present metrics.
func (m SummaryMetrics) Map() map[MetricName]float64 {
	out := make(map[MetricName]float64, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes only the present metrics, so absent ones stay absent.
func (m SummaryMetrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Map())
}

// ParseSummary extracts the known metrics from a free-form summary report.
// Unmatched patterns and captures that are not valid numbers contribute
// nothing.
func ParseSummary(text string) SummaryMetrics {
	values := make(map[MetricName]float64)
	for name, pattern := range summaryPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		v, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		values[name] = v
	}
	return SummaryMetrics{values: values}
}
