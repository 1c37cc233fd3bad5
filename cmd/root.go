package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/tcp-trace-analyzer/congestion"
)

var (
	// Flags shared by every subcommand
	resultsDir     string // Directory holding simulator output
	filePrefix     string // File-name prefix written by the simulator
	runID          string // Pin the load to one run timestamp (YYYYMMDD_HHMMSS)
	logLevel       string // Log verbosity level
	thresholdsPath string // Optional YAML file overriding severity thresholds
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tcp-trace-analyzer",
	Short: "Analyze TCP Reno congestion-control traces for DropTail and RED queues",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// effectivePrefix applies --run to --prefix.
func effectivePrefix() string {
	if runID == "" {
		return filePrefix
	}
	run, err := congestion.ParseRunID(runID)
	if err != nil {
		logrus.Fatalf("Invalid --run: %v", err)
	}
	return congestion.RunPrefix(filePrefix, run)
}

// mustLoadThresholds returns the built-in thresholds, or those from --thresholds.
func mustLoadThresholds() ReportThresholds {
	if thresholdsPath == "" {
		return DefaultThresholds()
	}
	t, err := LoadThresholds(thresholdsPath)
	if err != nil {
		logrus.Fatalf("Failed to load thresholds: %v", err)
	}
	return t
}

// mustLoad loads labels into a fresh registry, exiting on a missing directory.
func mustLoad(labels []string) (*congestion.Registry, []*congestion.LoadReport) {
	registry := congestion.NewRegistry()
	reports, err := congestion.NewLoader(registry).LoadAll(resultsDir, effectivePrefix(), labels)
	if err != nil {
		logrus.Fatalf("Load failed: %v (run the simulation first)", err)
	}
	return registry, reports
}

func init() {
	rootCmd.PersistentFlags().StringVar(&resultsDir, "results-dir", "../results/", "Directory containing simulation results")
	rootCmd.PersistentFlags().StringVar(&filePrefix, "prefix", "P2P-project", "File-name prefix of the results")
	rootCmd.PersistentFlags().StringVar(&runID, "run", "", "Load a specific run (YYYYMMDD_HHMMSS) instead of the latest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&thresholdsPath, "thresholds", "", "YAML file with severity thresholds")
}
