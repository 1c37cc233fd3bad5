package aggregate

import "fmt"

// Band is an ordered severity grade; Good < Warn < Bad.
type Band int

const (
	Good Band = iota
	Warn
	Bad
)

func (b Band) String() string {
	switch b {
	case Good:
		return "GOOD"
	case Warn:
		return "WARN"
	case Bad:
		return "BAD"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// MarshalText encodes the band by name.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Thresholds are the two cut points used to grade one metric.
//
// When HigherIsBetter is false a value below Good is Good, a value below Warn
// is Warn and anything else is Bad. When HigherIsBetter is true the comparisons
// flip: above Good is Good, above Warn is Warn, otherwise Bad. Use +Inf or -Inf
// for Warn to get a two-band grading.
type Thresholds struct {
	Good           float64 `yaml:"good" json:"good"`
	Warn           float64 `yaml:"warn" json:"warn"`
	HigherIsBetter bool    `yaml:"higher_is_better" json:"higher_is_better"`
}

// SeverityBand grades value against t.
func SeverityBand(value float64, t Thresholds) Band {
	if t.HigherIsBetter {
		switch {
		case value > t.Good:
			return Good
		case value > t.Warn:
			return Warn
		}
		return Bad
	}
	switch {
	case value < t.Good:
		return Good
	case value < t.Warn:
		return Warn
	}
	return Bad
}
