package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
	"github.com/inference-sim/tcp-trace-analyzer/congestion/aggregate"
)

var (
	compareQueues []string
	compareDetail bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two queue policies metric by metric",
	Run: func(cmd *cobra.Command, args []string) {
		if len(compareQueues) != 2 {
			logrus.Fatalf("--queues needs exactly two policies, got %d", len(compareQueues))
		}
		thresholds := mustLoadThresholds()
		registry, reports := mustLoad(compareQueues)
		for _, r := range reports {
			printLoadReport(os.Stdout, r)
		}
		a, _ := registry.Get(compareQueues[0])
		b, _ := registry.Get(compareQueues[1])
		if compareDetail {
			printAnalysis(os.Stdout, a, thresholds)
			printAnalysis(os.Stdout, b, thresholds)
		}
		printComparison(os.Stdout, a, b)
	},
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func printComparison(w io.Writer, a, b *congestion.Dataset) {
	fmt.Fprintf(w, "\n%s\nCOMPARISON: %s vs %s\n%s\n", separator, a.Label(), b.Label(), separator)
	fmt.Fprintf(w, "   %-18s %12s %12s   %s\n", "Metric", a.Label(), b.Label(), "Better")
	fmt.Fprintln(w, rule)
	comparisons := aggregate.Compare(a, b)
	for _, c := range comparisons {
		winner := c.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "   %-18s %12s %12s   %s\n", c.Metric, formatOptional(c.A), formatOptional(c.B), winner)
	}

	for _, d := range []*congestion.Dataset{a, b} {
		if s, err := aggregate.CwndStability(d); err == nil {
			fmt.Fprintf(w, "   %s cwnd stability: %.1f\n", d.Label(), s)
		} else {
			fmt.Fprintf(w, "   %s cwnd stability: n/a (%v)\n", d.Label(), err)
		}
	}

	fmt.Fprintf(w, "\nRECOMMENDATION:\n%s\n", rule)
	for _, c := range comparisons {
		switch c.Metric {
		case congestion.MetricAvgDelay:
			printWinner(w, "Lower delay:", c, "ms")
		case congestion.MetricLossRate:
			printWinner(w, "Lower loss:", c, "%")
		}
	}
}

func printWinner(w io.Writer, title string, c aggregate.Comparison, unit string) {
	switch {
	case c.A == nil || c.B == nil:
		fmt.Fprintf(w, "   %-14s n/a\n", title)
	case c.Winner == "":
		fmt.Fprintf(w, "   %-14s tie (%.2f %s)\n", title, *c.A, unit)
	default:
		won, lost := *c.A, *c.B
		if (won > lost) != c.HigherIsBetter {
			won, lost = lost, won
		}
		fmt.Fprintf(w, "   %-14s %s (%.2f %s vs %.2f %s)\n", title, c.Winner, won, unit, lost, unit)
	}
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareQueues, "queues", []string{"DropTail", "RED"}, "The two queue policies to compare")
	compareCmd.Flags().BoolVar(&compareDetail, "print", false, "Also print the detailed analysis of each policy")

	rootCmd.AddCommand(compareCmd)
}
