// Package aggregate derives counts and quality metrics from a loaded
// congestion.Dataset. Every function is pure; none of them mutate or cache.
package aggregate

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
)

var (
	// ErrNoSamples is returned when a statistic needs at least one sample.
	ErrNoSamples = errors.New("dataset has no cwnd samples")
	// ErrTooFewSamples is returned when stability needs two consecutive samples.
	ErrTooFewSamples = errors.New("cwnd stability needs at least two samples")
	// ErrZeroMeanCwnd is returned when the mean cwnd is zero.
	ErrZeroMeanCwnd = errors.New("cwnd stability undefined for zero mean cwnd")
	// ErrNegativeMeanCwnd is returned when the mean cwnd is below zero.
	ErrNegativeMeanCwnd = errors.New("cwnd stability undefined for negative mean cwnd")
	// ErrNonFiniteCwnd is returned when a cwnd value is NaN or infinite.
	ErrNonFiniteCwnd = errors.New("cwnd values must be finite")
	// ErrEfficiencyUndefined is returned when sent or received packet counts
	// are absent, or no packets were sent.
	ErrEfficiencyUndefined = errors.New("efficiency undefined without sent and received packet counts")
)

// CountByKind counts events per kind. Only kinds that occur appear in the map.
func CountByKind(d *congestion.Dataset) map[congestion.EventKind]int {
	counts := make(map[congestion.EventKind]int)
	for _, e := range d.Events() {
		counts[e.Kind]++
	}
	return counts
}

// CwndStability scores how steady the congestion window is, from 0 to 100:
//
//	max(0, 100 - 100 * mean(|cwnd[i] - cwnd[i-1]|) / mean(cwnd))
//
// The mean cwnd must be positive.
func CwndStability(d *congestion.Dataset) (float64, error) {
	cwnd := d.CwndValues()
	if len(cwnd) < 2 {
		return 0, ErrTooFewSamples
	}
	if !allFinite(cwnd) {
		return 0, ErrNonFiniteCwnd
	}
	mean := stat.Mean(cwnd, nil)
	switch {
	case mean == 0:
		return 0, ErrZeroMeanCwnd
	case mean < 0:
		return 0, ErrNegativeMeanCwnd
	}

	variation := make([]float64, len(cwnd)-1)
	for i := 1; i < len(cwnd); i++ {
		variation[i-1] = math.Abs(cwnd[i] - cwnd[i-1])
	}
	score := 100 - 100*stat.Mean(variation, nil)/mean
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNonFiniteCwnd
	}
	return math.Min(100, math.Max(0, score)), nil
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Efficiency is the percentage of sent packets that were received.
func Efficiency(d *congestion.Dataset) (float64, error) {
	summary := d.Summary()
	tx, ok := summary.Get(congestion.MetricTotalTx)
	if !ok || tx <= 0 {
		return 0, ErrEfficiencyUndefined
	}
	rx, ok := summary.Get(congestion.MetricTotalRx)
	if !ok {
		return 0, ErrEfficiencyUndefined
	}
	return 100 * rx / tx, nil
}

// CwndStats describes the distribution of cwnd values, in kilobytes.
type CwndStats struct {
	Initial float64 `json:"initial"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"` // population standard deviation
}

// CwndStatistics summarizes the cwnd samples of d.
func CwndStatistics(d *congestion.Dataset) (CwndStats, error) {
	cwnd := d.CwndValues()
	if len(cwnd) == 0 {
		return CwndStats{}, ErrNoSamples
	}
	if !allFinite(cwnd) {
		return CwndStats{}, ErrNonFiniteCwnd
	}
	mean, std := stat.PopMeanStdDev(cwnd, nil)
	return CwndStats{
		Initial: cwnd[0],
		Min:     floats.Min(cwnd),
		Max:     floats.Max(cwnd),
		Mean:    mean,
		StdDev:  std,
	}, nil
}
