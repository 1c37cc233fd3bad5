package congestion

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateLog = `# TCP state log - RED
----------------------------------------
0.000s: STATE_CHANGE OPEN
1.250s: DUP_ACK seq=1448
1.251s: DUP_ACK seq=1448
1.252s TRIPLE_DUP_ACK
1.252s: STATE_CHANGE OPEN -> RECOVERY
garbage DUP_ACK
2.5 TIMEOUT_EVENT rto=200ms
3.000s: CWND_PROBE  some   spaced   detail
lonely
`

func TestLoad_AllFilesPresent(t *testing.T) {
	// GIVEN a complete timestamped run
	dir := t.TempDir()
	run := RunID("20240102_000000")
	touch(t, dir, TimestampedName("X", run, "RED", KindTrace), "0.1 10\n0.2 12.5\n0.3 11\n")
	touch(t, dir, TimestampedName("X", run, "RED", KindStateLog), stateLog)
	touch(t, dir, TimestampedName("X", run, "RED", KindSummary), fullSummary)
	loader := NewLoader(NewRegistry())

	// WHEN loaded
	d, report, err := loader.Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN samples, events, state changes and metrics are populated
	assert.Equal(t, "RED", d.Label())
	assert.NotEmpty(t, d.LoadID())
	assert.Equal(t, []Sample{{0.1, 10}, {0.2, 12.5}, {0.3, 11}}, d.Samples())

	events := d.Events()
	require.Len(t, events, 7)
	assert.Equal(t, Event{Time: 0, Kind: EventStateChange, Detail: "OPEN"}, events[0])
	assert.Equal(t, Event{Time: 1.25, Kind: EventDupAck, Detail: "seq=1448"}, events[1])
	assert.Equal(t, Event{Time: 1.252, Kind: EventTripleDupAck, Detail: ""}, events[3])
	assert.Equal(t, Event{Time: 2.5, Kind: EventTimeout, Detail: "rto=200ms"}, events[5])
	assert.Equal(t, Event{Time: 3, Kind: "CWND_PROBE", Detail: "some spaced detail"}, events[6])

	assert.Equal(t, []StateChange{{0, "OPEN"}, {1.252, "OPEN -> RECOVERY"}}, d.StateChanges())
	assert.Equal(t, 12, d.Summary().Len())

	// AND the report reflects what was read
	assert.Empty(t, report.Missing)
	assert.Equal(t, 3, report.Samples)
	assert.Equal(t, 7, report.Events)
	assert.Equal(t, 12, report.Metrics)
	assert.Equal(t, 2, report.SkippedLogLines)
	assert.Equal(t, d.LoadID(), report.LoadID)
	assert.Len(t, report.Paths, 3)

	// AND the dataset is registered
	got, ok := loader.Registry().Get("RED")
	require.True(t, ok)
	assert.Same(t, d, got)
}

func TestLoad_TraceRoundTrip_PreservesOrderAndCount(t *testing.T) {
	// GIVEN N well-formed lines
	const n = 500
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d.%03d %d\n", i/10, i%10*100, (i*7)%50+1)
	}
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "DropTail", KindTrace), b.String())

	// WHEN loaded
	d, _, err := NewLoader(NewRegistry()).Load(dir, "X", "DropTail")
	require.NoError(t, err)

	// THEN exactly N samples in the original order
	samples := d.Samples()
	require.Len(t, samples, n)
	for i, s := range samples {
		assert.Equal(t, float64((i*7)%50+1), s.Cwnd, "sample %d", i)
	}
}

func TestLoad_TraceSkipsMalformedLines(t *testing.T) {
	// GIVEN good lines mixed with blanks, 1-token, 3-token and non-numeric lines
	trace := "1.0 10\n\n2.0\n   \n3.0 30 extra\n4.0 40\nabc 50\n5.0 xyz\n6.0\t60\n"
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "RED", KindTrace), trace)

	d, report, err := NewLoader(NewRegistry()).Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN only the well-formed lines survive, in relative order
	assert.Equal(t, []Sample{{1, 10}, {4, 40}, {6, 60}}, d.Samples())
	assert.Equal(t, 4, report.SkippedTraceLines)
}

func TestLoad_LongLinesDoNotStopReading(t *testing.T) {
	// GIVEN a trace and state log each holding a 70 KiB line between valid lines
	long := strings.Repeat("x", 70*1024)
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "RED", KindTrace), "1 10\n"+long+"\n2 20\n3 30\n")
	touch(t, dir, LegacyName("X", "RED", KindStateLog),
		"1.0s: DUP_ACK\n2.0s: STATE_CHANGE "+long+"\n3.0s: TIMEOUT_EVENT\n")

	// WHEN loaded
	d, report, err := NewLoader(NewRegistry()).Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN every line after the long one is still read
	assert.Equal(t, []Sample{{1, 10}, {2, 20}, {3, 30}}, d.Samples())
	assert.Equal(t, 1, report.SkippedTraceLines)
	require.Len(t, d.Events(), 3)
	assert.Equal(t, EventTimeout, d.Events()[2].Kind)
	assert.Len(t, d.Events()[1].Detail, len(long))
	assert.Zero(t, report.SkippedLogLines)
}

func TestReadTrace_LineOverLimitCountedAsSkipped(t *testing.T) {
	// GIVEN a line longer than the per-line limit
	input := "1 10\n" + strings.Repeat("9", maxLineBytes+1) + " 5\n2 20"

	// WHEN parsed
	samples, skipped, err := readTrace(strings.NewReader(input))

	// THEN it is dropped and counted, and the unterminated last line is kept
	require.NoError(t, err)
	assert.Equal(t, []Sample{{1, 10}, {2, 20}}, samples)
	assert.Equal(t, 1, skipped)
}

func TestLoad_NonFiniteValuesSkipped(t *testing.T) {
	// GIVEN NaN and infinite values in the trace and state log
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "RED", KindTrace), "1 10\n2 NaN\n3 inf\n-Infinity 5\n4 40\n")
	touch(t, dir, LegacyName("X", "RED", KindStateLog), "NaN DUP_ACK\n1.0s: DUP_ACK\n")

	// WHEN loaded
	d, report, err := NewLoader(NewRegistry()).Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN they are treated as malformed lines
	assert.Equal(t, []Sample{{1, 10}, {4, 40}}, d.Samples())
	assert.Equal(t, 3, report.SkippedTraceLines)
	assert.Len(t, d.Events(), 1)
	assert.Equal(t, 1, report.SkippedLogLines)
}

func TestLoad_OnlySummaryPresent_DegradesWithoutError(t *testing.T) {
	// GIVEN a directory holding only the summary file
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "RED", KindSummary), fullSummary)

	// WHEN loaded
	d, report, err := NewLoader(NewRegistry()).Load(dir, "X", "RED")

	// THEN no error, empty samples and events, populated summary
	require.NoError(t, err)
	assert.Empty(t, d.Samples())
	assert.Empty(t, d.Events())
	assert.Empty(t, d.StateChanges())
	assert.True(t, d.Summary().Has(MetricAvgThroughput))
	assert.Equal(t, []FileKind{KindTrace, KindStateLog}, report.Missing)
	assert.True(t, report.IsMissing(KindTrace))
	assert.False(t, report.IsMissing(KindSummary))
}

func TestLoad_EmptyDirectory_EmptyDataset(t *testing.T) {
	d, report, err := NewLoader(NewRegistry()).Load(t.TempDir(), "X", "RED")
	require.NoError(t, err)
	assert.Equal(t, 0, d.NumSamples())
	assert.Equal(t, 0, d.NumEvents())
	assert.Equal(t, 0, d.Summary().Len())
	assert.Equal(t, AllKinds, report.Missing)
}

func TestLoad_MissingDirectory_ReturnsErrDirNotFound(t *testing.T) {
	registry := NewRegistry()
	_, _, err := NewLoader(registry).Load(filepath.Join(t.TempDir(), "missing"), "X", "RED")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirNotFound))
	assert.Equal(t, 0, registry.Len())
}

func TestLoad_PathIsFile_ReturnsErrDirNotFound(t *testing.T) {
	file := touch(t, t.TempDir(), "results", "")
	_, _, err := NewLoader(NewRegistry()).Load(file, "X", "RED")
	assert.ErrorIs(t, err, ErrDirNotFound)
}

func TestLoad_ReloadReplacesRegisteredDataset(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, LegacyName("X", "RED", KindTrace), "1 10\n")
	registry := NewRegistry()
	loader := NewLoader(registry)

	first, _, err := loader.Load(dir, "X", "RED")
	require.NoError(t, err)

	touch(t, dir, LegacyName("X", "RED", KindTrace), "1 10\n2 20\n")
	second, _, err := loader.Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN the registry holds the new dataset and the old one is unchanged
	got, _ := registry.Get("RED")
	assert.Same(t, second, got)
	assert.NotEqual(t, first.LoadID(), second.LoadID())
	assert.Equal(t, 1, first.NumSamples())
	assert.Equal(t, 2, second.NumSamples())
}

func TestLoad_CompressedSources(t *testing.T) {
	// GIVEN a gzip trace and a zstd state log under their usual names
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte("0.5 8\n1.0 16\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyName("X", "RED", KindTrace)), gz.Bytes(), 0644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte("1.0s: DUP_ACK\n2.0s: STATE_CHANGE LOSS\n"), nil)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, LegacyName("X", "RED", KindStateLog)), compressed, 0644))

	// WHEN loaded
	d, _, err := NewLoader(NewRegistry()).Load(dir, "X", "RED")
	require.NoError(t, err)

	// THEN content is decoded transparently
	assert.Equal(t, []Sample{{0.5, 8}, {1, 16}}, d.Samples())
	assert.Equal(t, []StateChange{{2, "LOSS"}}, d.StateChanges())
	assert.Equal(t, 2, d.NumEvents())
}

func TestLoadAll_LoadsLabelsConcurrently(t *testing.T) {
	dir := t.TempDir()
	labels := []string{"DropTail", "RED", "CoDel", "PIE"}
	for i, label := range labels {
		touch(t, dir, LegacyName("X", label, KindTrace), strings.Repeat(fmt.Sprintf("1 %d\n", i+1), i+1))
	}
	registry := NewRegistry()

	reports, err := NewLoader(registry).LoadAll(dir, "X", labels)
	require.NoError(t, err)

	require.Len(t, reports, len(labels))
	for i, label := range labels {
		assert.Equal(t, label, reports[i].Label)
		assert.Equal(t, i+1, reports[i].Samples)
	}
	assert.Equal(t, []string{"CoDel", "DropTail", "PIE", "RED"}, registry.Labels())
}

func TestLoadAll_MissingDirectory(t *testing.T) {
	_, err := NewLoader(NewRegistry()).LoadAll(filepath.Join(t.TempDir(), "x"), "X", []string{"RED"})
	assert.ErrorIs(t, err, ErrDirNotFound)
}

func TestTrimTimeSuffix(t *testing.T) {
	cases := map[string]string{
		"1.250s:": "1.250",
		"2.5":     "2.5",
		"3s":      "3",
		"4.0ms":   "4.0",
		"abc":     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, trimTimeSuffix(in), in)
	}
}
