// Package script is the benchmark script: it registers a no-op export and
// event handler, calls bench_1 and bench_2 directly, then times each once
// and prints the measured duration.
package script

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/logging"
	"github.com/psantana5/hostbench/internal/observe"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/wrapper"
)

const (
	ExportName  = "exportBench"
	EventName   = "jsEventHandler"
	Bench1Label = "bench_1"
	Bench2Label = "bench_2"
)

// Options tune where output goes and what gets recorded.
// Zero value prints nothing and records nothing.
type Options struct {
	Out     io.Writer // measured durations, one per line
	Labels  bool      // prefix each line with its benchmark label
	RunID   string
	Logger  *logging.Logger
	Metrics *report.Metrics
	History *report.History
	Tracer  trace.Tracer
}

// Benchmark is a named benchmark body
type Benchmark struct {
	Label string
	Fn    wrapper.Func
}

// Script runs against an injected host
type Script struct {
	host host.Host
	opts Options
	log  *logging.Logger

	outMu sync.Mutex
}

// New creates a script bound to h
func New(h host.Host, opts Options) *Script {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.RunID == "" {
		opts.RunID = report.NewRunID()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Script{
		host: h,
		opts: opts,
		log:  logger.WithField("component", "script").WithField("run_id", opts.RunID),
	}
}

// RunID identifies this script instance's results
func (s *Script) RunID() string {
	return s.opts.RunID
}

// ExportBench is the exported capability. It does nothing.
func ExportBench(args ...any) (any, error) {
	return nil, nil
}

// HandleEvent is the jsEventHandler subscription. It ignores its event.
func HandleEvent(ev host.Event) {}

// Register exposes exportBench and subscribes jsEventHandler
func (s *Script) Register() error {
	if err := s.host.Export(ExportName, ExportBench); err != nil {
		return fmt.Errorf("register export %s: %w", ExportName, err)
	}
	if err := s.host.On(EventName, HandleEvent); err != nil {
		return fmt.Errorf("register event %s: %w", EventName, err)
	}
	s.log.Debug("Registered", map[string]interface{}{"export": ExportName, "event": EventName})
	return nil
}

// Bench1 queries the resource count and discards it
func (s *Script) Bench1() error {
	_, err := s.host.GetNumResources()
	return err
}

// Bench2 cancels the pending event
func (s *Script) Bench2() error {
	return s.host.CancelEvent()
}

// Benchmarks returns bench_1 and bench_2 in run order
func (s *Script) Benchmarks() []Benchmark {
	return []Benchmark{
		{Label: Bench1Label, Fn: s.Bench1},
		{Label: Bench2Label, Fn: s.Bench2},
	}
}

// Run registers, calls every benchmark once untimed, then measures each
// once. The first error stops the run.
func (s *Script) Run(ctx context.Context) ([]report.Result, error) {
	if err := s.Register(); err != nil {
		return nil, err
	}

	benches := s.Benchmarks()

	for _, b := range benches {
		if err := b.Fn(); err != nil {
			s.opts.Metrics.RecordFailure(b.Label)
			return nil, fmt.Errorf("%s: %w", b.Label, err)
		}
		s.opts.Metrics.RecordDirect(b.Label)
	}

	results := make([]report.Result, 0, len(benches))
	for _, b := range benches {
		r, err := s.Measure(ctx, b.Label, b.Fn)
		if err != nil {
			return results, err
		}
		results = append(results, *r)
	}
	return results, nil
}

// Measure times one call of fn. Every call gets its own stream, wrapped
// function and one-shot observer; the observer prints the first entry it
// sees and disconnects. Measure returns once that print has happened; a
// printed line always has a returned and recorded Result.
func (s *Script) Measure(ctx context.Context, label string, fn wrapper.Func) (*report.Result, error) {
	stream := observe.NewStream()
	wrapped := wrapper.Timerify(label, fn, stream, wrapper.WithTracer(s.opts.Tracer))

	reported := make(chan observe.Entry, 1)
	obs := observe.NewObserver(func(list observe.EntryList, o *observe.Observer) {
		entry := list.Entries()[0]
		s.println(report.Line(label, entry.Milliseconds(), s.opts.Labels))
		o.Disconnect()
		reported <- entry
	})
	if err := obs.Observe(stream, observe.EntryTypeFunction); err != nil {
		return nil, fmt.Errorf("observe %s: %w", label, err)
	}

	if err := wrapped(ctx); err != nil {
		obs.Disconnect()
		s.opts.Metrics.RecordFailure(label)
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	select {
	case entry := <-reported:
		return s.record(label, entry), nil
	case <-ctx.Done():
	}

	// The observer may have printed already. Stop it, let any delivery in
	// progress finish, and keep the result if the line went out.
	obs.Disconnect()
	obs.Wait()
	select {
	case entry := <-reported:
		return s.record(label, entry), nil
	default:
		return nil, ctx.Err()
	}
}

// record turns a reported entry into a Result and stores it
func (s *Script) record(label string, entry observe.Entry) *report.Result {
	result := report.NewResult(s.opts.RunID, label, entry)
	s.opts.Metrics.RecordResult(result)
	if s.opts.History != nil {
		s.opts.History.Record(result)
	}
	s.log.Debug("Measured", map[string]interface{}{"benchmark": label, "duration": entry.Duration})
	return result
}

func (s *Script) println(line string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.opts.Out, line)
}
