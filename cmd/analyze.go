package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
	"github.com/inference-sim/tcp-trace-analyzer/congestion/aggregate"
)

var queueType string

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print a detailed analysis of one queue policy",
	Run: func(cmd *cobra.Command, args []string) {
		thresholds := mustLoadThresholds()
		registry, reports := mustLoad([]string{queueType})
		d, _ := registry.Get(queueType)
		printLoadReport(os.Stdout, reports[0])
		printAnalysis(os.Stdout, d, thresholds)
	},
}

var separator = strings.Repeat("=", 70)
var rule = "   " + strings.Repeat("-", 60)

func printLoadReport(w io.Writer, r *congestion.LoadReport) {
	fmt.Fprintf(w, "Loaded %s: %d cwnd samples, %d events, %d summary metrics\n",
		r.Label, r.Samples, r.Events, r.Metrics)
	for _, kind := range r.Missing {
		fmt.Fprintf(w, "   missing %s file\n", kind)
	}
}

// printAnalysis writes the terminal report for d. Absent data is reported as
// such; nothing here assumes a populated dataset.
func printAnalysis(w io.Writer, d *congestion.Dataset, t ReportThresholds) {
	summary := d.Summary()

	fmt.Fprintf(w, "\n%s\nDETAILED ANALYSIS: %s Queue\n%s\n", separator, d.Label(), separator)

	fmt.Fprintf(w, "\nCONGESTION WINDOW (CWND):\n%s\n", rule)
	if stats, err := aggregate.CwndStatistics(d); err == nil {
		fmt.Fprintf(w, "   Initial CWND:    %8.2f KB\n", stats.Initial)
		fmt.Fprintf(w, "   Maximum CWND:    %8.2f KB\n", stats.Max)
		fmt.Fprintf(w, "   Average CWND:    %8.2f KB\n", stats.Mean)
		fmt.Fprintf(w, "   Minimum CWND:    %8.2f KB\n", stats.Min)
		fmt.Fprintf(w, "   Std Deviation:   %8.2f KB\n", stats.StdDev)
	} else {
		fmt.Fprintf(w, "   no cwnd samples\n")
	}
	if stability, err := aggregate.CwndStability(d); err == nil {
		fmt.Fprintf(w, "   Stability:       %8.1f %%  [%s]\n", stability, aggregate.SeverityBand(stability, t.Stability))
	} else {
		fmt.Fprintf(w, "   Stability:       n/a (%v)\n", err)
	}

	fmt.Fprintf(w, "\nPERFORMANCE:\n%s\n", rule)
	printMetric(w, "Throughput:", summary, congestion.MetricAvgThroughput, "%8.3f Mbps", &t.Throughput)
	printMetric(w, "Packet Loss:", summary, congestion.MetricLossRate, "%8.2f %%", &t.LossRate)
	printMetric(w, "Average Delay:", summary, congestion.MetricAvgDelay, "%8.2f ms", &t.Delay)

	fmt.Fprintf(w, "\nPACKETS:\n%s\n", rule)
	printCount(w, "Sent:", summary, congestion.MetricTotalTx, nil)
	printCount(w, "Received:", summary, congestion.MetricTotalRx, nil)
	printCount(w, "Lost:", summary, congestion.MetricTotalLost, nil)
	if eff, err := aggregate.Efficiency(d); err == nil {
		fmt.Fprintf(w, "   %-17s%8.1f %%  [%s]\n", "Efficiency:", eff, aggregate.SeverityBand(eff, t.Efficiency))
	} else {
		fmt.Fprintf(w, "   %-17s%8s\n", "Efficiency:", "n/a")
	}

	fmt.Fprintf(w, "\nTCP EVENTS:\n%s\n", rule)
	printCount(w, "Timeouts:", summary, congestion.MetricTimeouts, &t.Timeouts)
	printCount(w, "Fast Retransmit:", summary, congestion.MetricFastRetransmits, &t.Retransmits)
	printCount(w, "State Changes:", summary, congestion.MetricStateChanges, nil)
	printEventCounts(w, aggregate.CountByKind(d))

	fmt.Fprintf(w, "\nEVALUATION:\n%s\n", rule)
	band, ok := overallBand(summary, t)
	if !ok {
		fmt.Fprintf(w, "   n/a (needs packet loss and timeout count)\n")
		return
	}
	for _, line := range evaluationText[band] {
		fmt.Fprintf(w, "   [%s] %s\n", band, line)
	}
}

var evaluationText = map[aggregate.Band][]string{
	aggregate.Good: {"Connection performing very well with low packet loss", "Effective congestion control mechanism"},
	aggregate.Warn: {"Moderate congestion, TCP is adjusting", "Acceptable performance"},
	aggregate.Bad:  {"Severe congestion or overload", "Consider reviewing queue configuration"},
}

// overallBand grades loss rate and timeouts together; the worse band wins.
// It reports false when either metric is absent from the summary.
func overallBand(s congestion.SummaryMetrics, t ReportThresholds) (aggregate.Band, bool) {
	loss, okLoss := s.Get(congestion.MetricLossRate)
	timeouts, okTimeouts := s.Get(congestion.MetricTimeouts)
	if !okLoss || !okTimeouts {
		return aggregate.Good, false
	}
	band := aggregate.SeverityBand(loss, t.LossRate)
	if b := aggregate.SeverityBand(timeouts, t.Timeouts); b > band {
		band = b
	}
	return band, true
}

func printEventCounts(w io.Writer, counts map[congestion.EventKind]int) {
	if len(counts) == 0 {
		fmt.Fprintf(w, "   no events in state log\n")
		return
	}
	kinds := make([]congestion.EventKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	fmt.Fprintf(w, "   Logged events:\n")
	for _, k := range kinds {
		fmt.Fprintf(w, "     %-20s%8s\n", k, humanize.Comma(int64(counts[k])))
	}
}

func printMetric(w io.Writer, title string, s congestion.SummaryMetrics, name congestion.MetricName, format string, t *aggregate.Thresholds) {
	v, ok := s.Get(name)
	if !ok {
		fmt.Fprintf(w, "   %-17s%8s\n", title, "n/a")
		return
	}
	fmt.Fprintf(w, "   %-17s"+format, title, v)
	if t != nil {
		fmt.Fprintf(w, "  [%s]", aggregate.SeverityBand(v, *t))
	}
	fmt.Fprintln(w)
}

func printCount(w io.Writer, title string, s congestion.SummaryMetrics, name congestion.MetricName, t *aggregate.Thresholds) {
	v, ok := s.Get(name)
	if !ok {
		fmt.Fprintf(w, "   %-17s%8s\n", title, "n/a")
		return
	}
	fmt.Fprintf(w, "   %-17s%8s", title, humanize.Comma(int64(v)))
	if t != nil {
		fmt.Fprintf(w, "  [%s]", aggregate.SeverityBand(v, *t))
	}
	fmt.Fprintln(w)
}

func init() {
	analyzeCmd.Flags().StringVar(&queueType, "queue", "", "Queue policy to analyze (DropTail, RED)")
	_ = analyzeCmd.MarkFlagRequired("queue")

	rootCmd.AddCommand(analyzeCmd)
}
