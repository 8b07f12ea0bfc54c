package script

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/hostbench/internal/host"
	"github.com/psantana5/hostbench/internal/report"
)

// stubHost counts native calls and records registrations
type stubHost struct {
	mu           sync.Mutex
	numResources int
	cancelEvent  int
	exports      map[string]host.ExportFunc
	handlers     map[string]host.EventHandler

	resourcesErr error
	cancelErr    error
	exportErr    error
	onCancel     func()
}

func newStubHost() *stubHost {
	return &stubHost{
		exports:  make(map[string]host.ExportFunc),
		handlers: make(map[string]host.EventHandler),
	}
}

func (h *stubHost) GetNumResources() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.numResources++
	return 7, h.resourcesErr
}

func (h *stubHost) CancelEvent() error {
	h.mu.Lock()
	h.cancelEvent++
	hook := h.onCancel
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	return h.cancelErr
}

func (h *stubHost) Export(name string, fn host.ExportFunc) error {
	if h.exportErr != nil {
		return h.exportErr
	}
	h.exports[name] = fn
	return nil
}

func (h *stubHost) On(name string, handler host.EventHandler) error {
	h.handlers[name] = handler
	return nil
}

func (h *stubHost) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.numResources, h.cancelEvent
}

func TestBench1CallsGetNumResourcesOnly(t *testing.T) {
	h := newStubHost()
	s := New(h, Options{})

	require.NoError(t, s.Bench1())

	res, cancel := h.counts()
	assert.Equal(t, 1, res)
	assert.Equal(t, 0, cancel)
}

func TestBench2CallsCancelEventOnly(t *testing.T) {
	h := newStubHost()
	s := New(h, Options{})

	require.NoError(t, s.Bench2())

	res, cancel := h.counts()
	assert.Equal(t, 0, res)
	assert.Equal(t, 1, cancel)
}

func TestRunPrintsTwoNonNegativeDurations(t *testing.T) {
	h := newStubHost()
	var out bytes.Buffer
	metrics := report.NewMetrics()
	history := report.NewHistory(10)

	s := New(h, Options{Out: &out, Metrics: metrics, History: history})
	results, err := s.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		v, err := strconv.ParseFloat(line, 64)
		require.NoError(t, err, "line %q is not a number", line)
		assert.GreaterOrEqual(t, v, 0.0)
	}

	require.Len(t, results, 2)
	assert.Equal(t, Bench1Label, results[0].Label)
	assert.Equal(t, Bench2Label, results[1].Label)
	assert.Equal(t, s.RunID(), results[0].RunID)
	assert.Equal(t, lines[0], report.FormatMilliseconds(results[0].Milliseconds()))

	// Each benchmark ran exactly twice: once direct, once timed
	res, cancel := h.counts()
	assert.Equal(t, 2, res)
	assert.Equal(t, 2, cancel)

	assert.Equal(t, 2, history.Count())
	count, err := testutil.GatherAndCount(metrics.Registry(), "hostbench_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDirectCallsProduceNoOutput(t *testing.T) {
	h := newStubHost()
	var out bytes.Buffer
	var mu sync.Mutex
	var seen []string
	h.onCancel = func() {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, out.String())
	}

	s := New(h, Options{Out: &out})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 2)
	// First cancel is the direct bench_2 call: nothing printed yet
	assert.Empty(t, seen[0])
	// Second cancel is the timed bench_2 call: bench_1 already reported
	assert.Equal(t, 1, strings.Count(seen[1], "\n"))
}

func TestLabelsPrefixLines(t *testing.T) {
	var out bytes.Buffer
	s := New(newStubHost(), Options{Out: &out, Labels: true})

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "bench_1: "))
	assert.True(t, strings.HasPrefix(lines[1], "bench_2: "))
}

func TestRegisteredCapabilitiesAreNoops(t *testing.T) {
	h := newStubHost()
	s := New(h, Options{})
	require.NoError(t, s.Register())

	export, ok := h.exports[ExportName]
	require.True(t, ok)
	out, err := export()
	assert.NoError(t, err)
	assert.Nil(t, out)

	handler, ok := h.handlers[EventName]
	require.True(t, ok)
	assert.NotPanics(t, func() {
		handler(host.Event{Name: EventName, Payload: map[string]int{"any": 1}})
		handler(host.Event{})
	})

	res, cancel := h.counts()
	assert.Equal(t, 0, res)
	assert.Equal(t, 0, cancel)
}

func TestHostFailurePropagates(t *testing.T) {
	boom := errors.New("native unavailable")
	h := newStubHost()
	h.resourcesErr = boom
	var out bytes.Buffer
	metrics := report.NewMetrics()

	s := New(h, Options{Out: &out, Metrics: metrics})
	_, err := s.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), Bench1Label)
	assert.Empty(t, out.String())

	// Fails fast: bench_2 never runs
	_, cancel := h.counts()
	assert.Equal(t, 0, cancel)
}

func TestMeasureFailurePrintsNothing(t *testing.T) {
	boom := errors.New("cancel failed")
	var out bytes.Buffer
	s := New(newStubHost(), Options{Out: &out})

	r, err := s.Measure(context.Background(), "bench_2", func() error { return boom })
	assert.Nil(t, r)
	assert.ErrorIs(t, err, boom)

	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, out.String())
}

func TestMeasureCanceledContextKeepsPrintedResult(t *testing.T) {
	for i := 0; i < 50; i++ {
		var out bytes.Buffer
		history := report.NewHistory(10)
		s := New(newStubHost(), Options{Out: &out, History: history})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := s.Measure(ctx, Bench1Label, s.Bench1)
		if out.Len() > 0 {
			require.NoError(t, err, "iteration %d printed but returned an error", i)
			require.NotNil(t, r)
			assert.Equal(t, 1, history.Count())
		} else {
			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, r)
			assert.Equal(t, 0, history.Count())
		}
	}
}

func TestRegisterFailurePropagates(t *testing.T) {
	boom := errors.New("exports closed")
	h := newStubHost()
	h.exportErr = boom

	_, err := New(h, Options{}).Run(context.Background())
	assert.ErrorIs(t, err, boom)

	res, cancel := h.counts()
	assert.Equal(t, 0, res+cancel)
}

func TestRunSuite(t *testing.T) {
	rt := host.NewRuntime("jsbench", "wasmbench")
	metrics := report.NewMetrics()

	samples, err := RunSuite(context.Background(), rt, Options{Metrics: metrics}, SuiteOptions{
		Target:      time.Millisecond,
		PayloadSize: 64,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(samples))
	for _, s := range samples {
		names = append(names, s.Name)
		assert.Greater(t, s.Iterations, 0)
		assert.GreaterOrEqual(t, s.Elapsed, time.Millisecond)
	}
	assert.Equal(t, []string{
		"invoking::get_num_resources",
		"invoking::cancel_event",
		"exports::exportBench",
		"event_handler::jsEventHandler (long)",
		"event_handler::jsEventHandler (short)",
	}, names)
	count, err := testutil.GatherAndCount(metrics.Registry(), "hostbench_suite_ns_per_op")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestCasesRequireRegisteredExport(t *testing.T) {
	rt := host.NewRuntime("jsbench")
	_, err := New(rt, Options{}).Cases(rt, 16)
	assert.ErrorIs(t, err, host.ErrExportNotFound)
}
