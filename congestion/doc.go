// Package congestion ingests the text output of a TCP congestion-control
// simulation run and turns it into an in-memory Dataset per queue policy.
//
// A run writes three files per queue policy into a results directory:
//
//	<prefix>_<YYYYMMDD_HHMMSS>_cwnd_trace_<policy>.tr   time/cwnd samples
//	<prefix>_<YYYYMMDD_HHMMSS>_tcp_state_<policy>.log   event and state log
//	<prefix>_<YYYYMMDD_HHMMSS>_summary_<policy>.txt     human-readable report
//
// Older runs omit the timestamp segment. Resolve picks the newest timestamped
// file and falls back to the untimestamped name; Loader reads whatever exists
// and registers the result in a Registry.
//
// Missing files and malformed lines are expected: they degrade the Dataset
// instead of failing the load. Only a missing results directory is an error.
package congestion
