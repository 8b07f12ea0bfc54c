package observe

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import "time"

// EntryType classifies measurement entries on a stream
type EntryType string

const (
	EntryTypeFunction EntryType = "function" // Emitted by timerified functions
	EntryTypeMark     EntryType = "mark"
	EntryTypeMeasure  EntryType = "measure"
)

// Entry is a single measurement record
type Entry struct {
	Name      string        `json:"name" yaml:"name"`
	Type      EntryType     `json:"entry_type" yaml:"entry_type"`
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Milliseconds returns the duration in fractional milliseconds,
// the unit printed by the benchmark script.
func (e Entry) Milliseconds() float64 {
	return float64(e.Duration) / float64(time.Millisecond)
}

// EntryList is one batch of entries delivered to an observer callback
type EntryList struct {
	entries []Entry
}

// Entries returns the entries in emission order
func (l EntryList) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesByName returns entries matching name
func (l EntryList) EntriesByName(name string) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the batch size
func (l EntryList) Len() int {
	return len(l.entries)
}
