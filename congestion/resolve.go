package congestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileKind is one of the three files a run writes per queue policy.
type FileKind string

const (
	KindTrace    FileKind = "trace"
	KindStateLog FileKind = "state-log"
	KindSummary  FileKind = "summary"
)

// AllKinds lists the file kinds in load order.
var AllKinds = []FileKind{KindTrace, KindStateLog, KindSummary}

// token is the file-name segment for the kind.
func (k FileKind) token() string {
	switch k {
	case KindTrace:
		return "cwnd_trace"
	case KindStateLog:
		return "tcp_state"
	case KindSummary:
		return "summary"
	}
	return string(k)
}

// Ext returns the file extension for the kind, including the dot.
func (k FileKind) Ext() string {
	switch k {
	case KindTrace:
		return ".tr"
	case KindStateLog:
		return ".log"
	case KindSummary:
		return ".txt"
	}
	return ""
}

// RunTimestampLayout is the run timestamp embedded in file names. It is fixed
// width and zero padded, so sorting the strings sorts the runs by time.
const RunTimestampLayout = "20060102_150405"

var runIDPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// RunID is the timestamp segment identifying one simulation run.
type RunID string

// ParseRunID validates s against the fixed-width run timestamp format.
func ParseRunID(s string) (RunID, error) {
	if !runIDPattern.MatchString(s) {
		return "", fmt.Errorf("run id %q is not YYYYMMDD_HHMMSS", s)
	}
	if _, err := time.Parse(RunTimestampLayout, s); err != nil {
		return "", fmt.Errorf("run id %q: %w", s, err)
	}
	return RunID(s), nil
}

func (r RunID) String() string { return string(r) }

// Time parses the run timestamp. The simulator writes local wall-clock time
// without a zone; it is interpreted as UTC.
func (r RunID) Time() (time.Time, error) {
	return time.Parse(RunTimestampLayout, string(r))
}

// Display formats the run as "YYYY-MM-DD HH:MM:SS", or the raw id if it does
// not parse.
func (r RunID) Display() string {
	t, err := r.Time()
	if err != nil {
		return string(r)
	}
	return t.Format("2006-01-02 15:04:05")
}

// RunPrefix returns the file prefix that pins a load to a single run.
func RunPrefix(prefix string, run RunID) string {
	return prefix + "_" + string(run)
}

// LegacyName is the untimestamped file name for the kind.
func LegacyName(prefix, label string, kind FileKind) string {
	return fmt.Sprintf("%s_%s_%s%s", prefix, kind.token(), label, kind.Ext())
}

// TimestampedName is the file name a run with the given id writes.
func TimestampedName(prefix string, run RunID, label string, kind FileKind) string {
	return LegacyName(RunPrefix(prefix, run), label, kind)
}

// Resolve finds the file to read for (prefix, label, kind) in dir. The newest
// timestamped file wins; otherwise the legacy untimestamped name is used if it
// exists. ok is false when neither exists. Resolve never fails.
func Resolve(dir, prefix, label string, kind FileKind) (path string, ok bool) {
	head := escapeGlob(prefix) + "_"
	tail := "_" + kind.token() + "_" + escapeGlob(label) + kind.Ext()
	matches, _ := filepath.Glob(filepath.Join(escapeGlob(dir), head+"*"+tail))

	var best string
	wantHead := prefix + "_"
	wantTail := "_" + kind.token() + "_" + label + kind.Ext()
	for _, m := range matches {
		base := filepath.Base(m)
		if len(base) < len(wantHead)+len(wantTail) {
			continue
		}
		stamp := base[len(wantHead) : len(base)-len(wantTail)]
		if !runIDPattern.MatchString(stamp) || !isRegularFile(m) {
			continue
		}
		if best == "" || base > filepath.Base(best) {
			best = m
		}
	}
	if best != "" {
		return best, true
	}

	legacy := filepath.Join(dir, LegacyName(prefix, label, kind))
	if isRegularFile(legacy) {
		return legacy, true
	}
	return "", false
}

// RunInfo describes one run found in a results directory.
type RunInfo struct {
	ID    RunID
	Files int
	Bytes int64
}

// ListRuns returns the runs present in dir for prefix, newest first.
func ListRuns(dir, prefix string) ([]RunInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading results dir %s: %w", dir, err)
	}
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `_(\d{8}_\d{6})_`)

	byID := make(map[RunID]*RunInfo)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		match := pattern.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		id := RunID(match[1])
		info, ok := byID[id]
		if !ok {
			info = &RunInfo{ID: id}
			byID[id] = info
		}
		info.Files++
		if fi, err := e.Info(); err == nil {
			info.Bytes += fi.Size()
		}
	}

	runs := make([]RunInfo, 0, len(byID))
	for _, info := range byID {
		runs = append(runs, *info)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	return runs, nil
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

var globMeta = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)

// escapeGlob quotes glob metacharacters so s matches literally.
func escapeGlob(s string) string {
	return globMeta.Replace(s)
}
