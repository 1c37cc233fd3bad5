package congestion

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDirNotFound is returned by Load when the results directory is missing.
var ErrDirNotFound = errors.New("results directory not found")

// LoadReport describes what a load found. Missing files and skipped lines are
// normal for partial runs and are reported here rather than as errors.
type LoadReport struct {
	Label             string
	LoadID            string
	Paths             map[FileKind]string // resolved path per kind that was read
	Missing           []FileKind          // kinds with no readable file, in load order
	Samples           int
	Events            int
	Metrics           int
	SkippedTraceLines int
	SkippedLogLines   int
}

// IsMissing reports whether kind had no readable file.
func (r *LoadReport) IsMissing(kind FileKind) bool {
	for _, k := range r.Missing {
		if k == kind {
			return true
		}
	}
	return false
}

// Loader reads a run's files and registers the resulting Datasets.
type Loader struct {
	registry *Registry
}

// NewLoader creates a Loader that registers into registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// Registry returns the registry the Loader writes to.
func (l *Loader) Registry() *Registry { return l.registry }

// Load reads the trace, state log and summary for label from dir, registers
// the Dataset under label (replacing any earlier one) and returns it with a
// report. The only error is a missing results directory.
func (l *Loader) Load(dir, prefix, label string) (*Dataset, *LoadReport, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}

	report := &LoadReport{
		Label:  label,
		LoadID: uuid.New().String(),
		Paths:  make(map[FileKind]string),
	}
	log := logrus.WithFields(logrus.Fields{"label": label, "load_id": report.LoadID})

	var (
		samples []Sample
		events  []Event
		summary SummaryMetrics
	)
	for _, kind := range AllKinds {
		path, ok := Resolve(dir, prefix, label, kind)
		if !ok {
			report.Missing = append(report.Missing, kind)
			log.Warnf("no %s file for %s in %s", kind, LegacyName(prefix, label, kind), dir)
			continue
		}
		log.Debugf("resolved %s file %s", kind, path)

		rc, err := openSource(path)
		if err != nil {
			report.Missing = append(report.Missing, kind)
			log.Warnf("cannot read %s file %s: %v", kind, path, err)
			continue
		}
		switch kind {
		case KindTrace:
			samples, report.SkippedTraceLines, err = readTrace(rc)
		case KindStateLog:
			events, report.SkippedLogLines, err = readStateLog(rc)
		case KindSummary:
			var text []byte
			text, err = io.ReadAll(rc)
			summary = ParseSummary(string(text))
		}
		_ = rc.Close()
		if err != nil {
			// Keep what was read before the failure.
			log.Warnf("reading %s file %s stopped early: %v", kind, path, err)
		}
		report.Paths[kind] = path
	}

	dataset := NewDataset(label, report.LoadID, samples, events, summary)
	report.Samples = dataset.NumSamples()
	report.Events = dataset.NumEvents()
	report.Metrics = dataset.Summary().Len()
	if report.SkippedTraceLines > 0 {
		log.Warnf("skipped %d malformed cwnd trace lines", report.SkippedTraceLines)
	}
	if report.SkippedLogLines > 0 {
		log.Warnf("skipped %d malformed state log lines", report.SkippedLogLines)
	}
	log.Infof("loaded %d cwnd samples, %d events, %d summary metrics",
		report.Samples, report.Events, report.Metrics)

	l.registry.Put(dataset)
	return dataset, report, nil
}

// LoadAll loads several labels concurrently. Every label is attempted; reports
// come back in the order of labels along with the first error in that order.
func (l *Loader) LoadAll(dir, prefix string, labels []string) ([]*LoadReport, error) {
	reports := make([]*LoadReport, len(labels))
	errs := make([]error, len(labels))

	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label string) {
			defer wg.Done()
			_, reports[i], errs[i] = l.Load(dir, prefix, label)
		}(i, label)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// maxLineBytes bounds a single input line. Longer lines are discarded
// without being buffered and count as malformed.
const maxLineBytes = 1 << 20

// eachLine calls fn for every line of r, without the line terminator. It
// returns the number of lines dropped for exceeding maxLineBytes.
func eachLine(r io.Reader, fn func(line string)) (int, error) {
	br := bufio.NewReader(r)
	var (
		buf      []byte
		tooLong  bool
		overlong int
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return overlong, nil
			}
			return overlong, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}
		if tooLong {
			overlong++
		} else {
			fn(string(buf))
		}
		buf = buf[:0]
		tooLong = false
	}
}

// parseFinite parses a decimal number, rejecting NaN and infinities.
func parseFinite(token string) (float64, bool) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// readTrace parses "time cwnd" lines. Lines that do not hold exactly two
// finite numbers are skipped and counted; blank lines are skipped silently.
func readTrace(r io.Reader) ([]Sample, int, error) {
	var samples []Sample
	skipped := 0
	overlong, err := eachLine(r, func(line string) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}
		if len(fields) != 2 {
			skipped++
			return
		}
		t, ok := parseFinite(fields[0])
		if !ok {
			skipped++
			return
		}
		cwnd, ok := parseFinite(fields[1])
		if !ok {
			skipped++
			return
		}
		samples = append(samples, Sample{Time: t, Cwnd: cwnd})
	})
	return samples, skipped + overlong, err
}

// readStateLog parses "<time>[unit] <KIND> [detail...]" lines, skipping
// comment ('#') and separator ('-') lines.
func readStateLog(r io.Reader) ([]Event, int, error) {
	var events []Event
	skipped := 0
	overlong, err := eachLine(r, func(line string) {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return
		}
		if len(fields) < 2 {
			skipped++
			return
		}
		t, ok := parseFinite(trimTimeSuffix(fields[0]))
		if !ok {
			skipped++
			return
		}
		events = append(events, Event{
			Time:   t,
			Kind:   EventKind(fields[1]),
			Detail: strings.Join(fields[2:], " "),
		})
	})
	return events, skipped + overlong, err
}

// trimTimeSuffix strips a trailing unit marker such as "s" or "s:".
func trimTimeSuffix(token string) string {
	return strings.TrimRightFunc(token, func(r rune) bool {
		return r < '0' || r > '9'
	})
}
