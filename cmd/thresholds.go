package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/tcp-trace-analyzer/congestion/aggregate"
)

// ReportThresholds holds the severity cut points used when printing a report.
// A thresholds file may list any subset of these sections.
type ReportThresholds struct {
	Throughput  aggregate.Thresholds `yaml:"throughput"`  // avg throughput per flow, Mbps
	LossRate    aggregate.Thresholds `yaml:"loss_rate"`   // percent
	Delay       aggregate.Thresholds `yaml:"delay"`       // ms
	Timeouts    aggregate.Thresholds `yaml:"timeouts"`    // count
	Retransmits aggregate.Thresholds `yaml:"retransmits"` // fast retransmit count
	Stability   aggregate.Thresholds `yaml:"stability"`   // 0-100 score
	Efficiency  aggregate.Thresholds `yaml:"efficiency"`  // percent
}

// DefaultThresholds returns the cut points used by the terminal report.
func DefaultThresholds() ReportThresholds {
	return ReportThresholds{
		Throughput:  aggregate.Thresholds{Good: 5, Warn: 2, HigherIsBetter: true},
		LossRate:    aggregate.Thresholds{Good: 1, Warn: 5},
		Delay:       aggregate.Thresholds{Good: 20, Warn: 50},
		Timeouts:    aggregate.Thresholds{Good: 3, Warn: 10},
		Retransmits: aggregate.Thresholds{Good: 5, Warn: math.Inf(1)},
		Stability:   aggregate.Thresholds{Good: 70, Warn: 50, HigherIsBetter: true},
		Efficiency:  aggregate.Thresholds{Good: 95, Warn: 90, HigherIsBetter: true},
	}
}

// LoadThresholds reads a thresholds YAML file. Sections omitted from the file
// keep their defaults, and a file with no YAML document (empty or comments
// only) changes nothing. Unknown keys are rejected so typos surface.
func LoadThresholds(path string) (ReportThresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReportThresholds{}, fmt.Errorf("reading thresholds file: %w", err)
	}
	cfg := DefaultThresholds()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultThresholds(), nil
		}
		return ReportThresholds{}, fmt.Errorf("parsing thresholds YAML: %w", err)
	}
	return cfg, nil
}
