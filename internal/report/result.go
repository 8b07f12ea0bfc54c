package report

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import (
	"time"

	"github.com/google/uuid"

	"github.com/psantana5/hostbench/internal/observe"
)

// Result is one timed invocation. Set once, never change.
type Result struct {
	// Identity
	RunID string `json:"run_id" yaml:"run_id"`
	Label string `json:"label" yaml:"label"`
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"entry_type" yaml:"entry_type"`

	// Timing (immutable)
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	Duration  time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// NewRunID returns a fresh identifier shared by all results of one run
func NewRunID() string {
	return uuid.NewString()
}

// NewResult freezes an observed entry
func NewResult(runID, label string, e observe.Entry) *Result {
	return &Result{
		RunID:     runID,
		Label:     label,
		Name:      e.Name,
		Type:      string(e.Type),
		StartTime: e.StartTime,
		Duration:  e.Duration,
	}
}

// Milliseconds returns the duration in fractional milliseconds
func (r *Result) Milliseconds() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}

// Sample is the outcome of one calibrated suite benchmark
type Sample struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Name       string        `json:"name" yaml:"name"`
	Iterations int           `json:"iterations" yaml:"iterations"`
	Elapsed    time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
	NsPerOp    float64       `json:"ns_per_op" yaml:"ns_per_op"`
}

// FormatNs formats nanoseconds per operation in a human-readable way
func FormatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return trimFloat(ns, 1) + "ns"
	case ns < 1e6:
		return trimFloat(ns/1e3, 3) + "µs"
	case ns < 1e9:
		return trimFloat(ns/1e6, 3) + "ms"
	default:
		return trimFloat(ns/1e9, 3) + "s"
	}
}
