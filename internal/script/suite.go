package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/report"
	"github.com/psantana5/hostbench/internal/wrapper"
)

const shortPayload = "hello!"

// SuiteHost is a host the suite can also import exports from and emit
// events into
type SuiteHost interface {
	host.Host
	host.Importer
	host.Emitter
	Resource() string
}

// BenchEvent is the payload emitted at jsEventHandler
type BenchEvent struct {
	Int    uint32 `json:"int"`
	String string `json:"string"`
}

// SuiteOptions tune calibration
type SuiteOptions struct {
	Target      time.Duration // minimum batch time per benchmark
	PayloadSize int           // bytes in the long event payload
}

// Cases returns the calibrated benchmarks: natives, the export and the
// event handler with a short and a long payload. Register must have run.
func (s *Script) Cases(h SuiteHost, payloadSize int) ([]Benchmark, error) {
	export, err := h.Import(h.Resource(), ExportName)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", ExportName, err)
	}

	long := BenchEvent{Int: 512, String: strings.Repeat("x", payloadSize)}
	short := BenchEvent{Int: 256, String: shortPayload}

	emit := func(payload BenchEvent) wrapper.Func {
		return func() error {
			_, err := h.Emit(EventName, "", payload)
			return err
		}
	}

	return []Benchmark{
		{Label: "invoking::get_num_resources", Fn: s.Bench1},
		{Label: "invoking::cancel_event", Fn: s.Bench2},
		{Label: "exports::" + ExportName, Fn: func() error {
			_, err := export(uint32(0))
			return err
		}},
		{Label: "event_handler::" + EventName + " (long)", Fn: emit(long)},
		{Label: "event_handler::" + EventName + " (short)", Fn: emit(short)},
	}, nil
}

// RunSuite registers the script on h and samples every case
func RunSuite(ctx context.Context, h SuiteHost, opts Options, suite SuiteOptions) ([]report.Sample, error) {
	if suite.Target <= 0 {
		suite.Target = time.Second
	}

	s := New(h, opts)
	if err := s.Register(); err != nil {
		return nil, err
	}

	cases, err := s.Cases(h, suite.PayloadSize)
	if err != nil {
		return nil, err
	}

	samples := make([]report.Sample, 0, len(cases))
	for _, c := range cases {
		res, err := wrapper.Sample(ctx, c.Label, c.Fn, suite.Target)
		if err != nil {
			s.opts.Metrics.RecordFailure(c.Label)
			return samples, err
		}

		sample := report.Sample{
			RunID:      s.opts.RunID,
			Name:       res.Name,
			Iterations: res.Iterations,
			Elapsed:    res.Elapsed,
			NsPerOp:    res.NsPerOp(),
		}
		s.opts.Metrics.RecordSample(sample)
		s.log.Info("Sampled", map[string]interface{}{
			"benchmark":  sample.Name,
			"time_op":    report.FormatNs(sample.NsPerOp),
			"iterations": sample.Iterations,
		})
		samples = append(samples, sample)
	}
	return samples, nil
}
