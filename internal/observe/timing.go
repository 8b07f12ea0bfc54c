package observe

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import "time"

// Timing records start/end timestamps only
type Timing struct {
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTiming creates timing with current start time
func NewTiming() *Timing {
	return &Timing{
		StartedAt: time.Now(),
	}
}

// Complete records completion time
func (t *Timing) Complete() {
	t.CompletedAt = time.Now()
}

// Duration returns execution duration. Never negative.
func (t *Timing) Duration() time.Duration {
	var d time.Duration
	if t.CompletedAt.IsZero() {
		d = time.Since(t.StartedAt)
	} else {
		d = t.CompletedAt.Sub(t.StartedAt)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Entry builds a measurement entry from this timing
func (t *Timing) Entry(name string, entryType EntryType) Entry {
	return Entry{
		Name:      name,
		Type:      entryType,
		StartTime: t.StartedAt,
		Duration:  t.Duration(),
	}
}
