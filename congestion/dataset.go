package congestion

// EventKind is the event token from the state log. The set is open: tokens not
// listed below are kept verbatim.
type EventKind string

const (
	EventDupAck       EventKind = "DUP_ACK"
	EventTripleDupAck EventKind = "TRIPLE_DUP_ACK"
	EventTimeout      EventKind = "TIMEOUT_EVENT"
	EventNewAck       EventKind = "NEW_ACK"
	EventStateChange  EventKind = "STATE_CHANGE"
)

// Sample is one congestion-window observation.
type Sample struct {
	Time float64 `json:"time"` // seconds
	Cwnd float64 `json:"cwnd"` // kilobytes
}

// Event is one data line of the state log.
type Event struct {
	Time   float64   `json:"time"`
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail"`
}

// StateChange is an Event of kind STATE_CHANGE reduced to its time and detail.
type StateChange struct {
	Time   float64 `json:"time"`
	Detail string  `json:"detail"`
}

// Dataset is everything loaded for one queue policy. It is immutable once
// built: accessors hand out copies, and a re-load replaces the whole value.
type Dataset struct {
	label        string
	loadID       string
	samples      []Sample
	events       []Event
	stateChanges []StateChange
	summary      SummaryMetrics
}

// NewDataset builds a Dataset and derives its state changes from events.
// The slices are copied.
func NewDataset(label, loadID string, samples []Sample, events []Event, summary SummaryMetrics) *Dataset {
	d := &Dataset{
		label:   label,
		loadID:  loadID,
		samples: append([]Sample(nil), samples...),
		events:  append([]Event(nil), events...),
		summary: summary,
	}
	for _, e := range d.events {
		if e.Kind == EventStateChange {
			d.stateChanges = append(d.stateChanges, StateChange{Time: e.Time, Detail: e.Detail})
		}
	}
	return d
}

// Label returns the queue policy label, e.g. "RED" or "DropTail".
func (d *Dataset) Label() string { return d.label }

// LoadID identifies the load that produced this Dataset.
func (d *Dataset) LoadID() string { return d.loadID }

// Samples returns the cwnd samples in file order.
func (d *Dataset) Samples() []Sample {
	return append([]Sample(nil), d.samples...)
}

// Events returns the state-log events in file order.
func (d *Dataset) Events() []Event {
	return append([]Event(nil), d.events...)
}

// StateChanges returns the STATE_CHANGE subset of Events.
func (d *Dataset) StateChanges() []StateChange {
	return append([]StateChange(nil), d.stateChanges...)
}

// Summary returns the parsed summary metrics.
func (d *Dataset) Summary() SummaryMetrics { return d.summary }

func (d *Dataset) NumSamples() int { return len(d.samples) }

func (d *Dataset) NumEvents() int { return len(d.events) }

// CwndValues returns the cwnd column of the samples.
func (d *Dataset) CwndValues() []float64 {
	values := make([]float64, len(d.samples))
	for i, s := range d.samples {
		values[i] = s.Cwnd
	}
	return values
}
