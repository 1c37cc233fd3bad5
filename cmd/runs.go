package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List simulation runs in the results directory, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		runs, err := congestion.ListRuns(resultsDir, filePrefix)
		if err != nil {
			logrus.Fatalf("Listing runs failed: %v", err)
		}
		printRuns(os.Stdout, runs)
	},
}

func printRuns(w io.Writer, runs []congestion.RunInfo) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no timestamped runs found (legacy files may still be loadable)")
		return
	}
	for i, r := range runs {
		latest := ""
		if i == 0 {
			latest = "  (latest)"
		}
		fmt.Fprintf(w, "%s  %s  %2d files  %9s%s\n",
			r.ID, r.ID.Display(), r.Files, humanize.Bytes(uint64(r.Bytes)), latest)
	}
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
