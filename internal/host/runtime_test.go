package host

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNumResources(t *testing.T) {
	r := NewRuntime("jsbench", "wasmbench", "jsbench", "")

	n, err := r.GetNumResources()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r.StartResource("mapmanager")
	r.StopResource("wasmbench")
	r.StopResource("missing")

	n, err = r.GetNumResources()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCancelEventOutsideDispatchIsNoop(t *testing.T) {
	r := NewRuntime("jsbench")

	require.NoError(t, r.CancelEvent())
	assert.False(t, Event{}.Canceled())
	Event{}.Cancel()
}

func TestEmitCancel(t *testing.T) {
	r := NewRuntime("jsbench")

	var order []string
	require.NoError(t, r.On("playerConnecting", func(ev Event) {
		order = append(order, "first")
		assert.False(t, ev.Canceled())
		ev.Cancel()
	}))
	require.NoError(t, r.On("playerConnecting", func(ev Event) {
		order = append(order, "second")
		assert.True(t, ev.Canceled())
		assert.Equal(t, "net:1", ev.Source)
		assert.Equal(t, 42, ev.Payload)
	}))

	canceled, err := r.Emit("playerConnecting", "net:1", 42)
	require.NoError(t, err)
	assert.True(t, canceled)
	assert.Equal(t, []string{"first", "second"}, order)

	// Cancellation does not leak into the next dispatch
	var seen bool
	require.NoError(t, r.On("playerDropped", func(ev Event) { seen = ev.Canceled() }))
	canceled, err = r.Emit("playerDropped", "", nil)
	require.NoError(t, err)
	assert.False(t, canceled)
	assert.False(t, seen)
}

func TestNestedEmitCancelsInnermost(t *testing.T) {
	r := NewRuntime("jsbench")

	var inner bool
	require.NoError(t, r.On("inner", func(ev Event) {
		ev.Cancel()
	}))
	require.NoError(t, r.On("outer", func(ev Event) {
		var err error
		inner, err = r.Emit("inner", "", nil)
		require.NoError(t, err)
		assert.False(t, ev.Canceled())
	}))

	outer, err := r.Emit("outer", "", nil)
	require.NoError(t, err)
	assert.True(t, inner)
	assert.False(t, outer)
}

func TestConcurrentDispatchesCancelIndependently(t *testing.T) {
	r := NewRuntime("jsbench")

	entered := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, r.On("b", func(Event) {
		close(entered)
		<-release
	}))
	require.NoError(t, r.On("a", func(ev Event) { ev.Cancel() }))

	var wg sync.WaitGroup
	var bCanceled bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		bCanceled, _ = r.Emit("b", "", nil)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch of b never started")
	}

	// b is parked in its handler on another goroutine. Neither a bare
	// CancelEvent nor a sibling dispatch that cancels itself may reach it.
	require.NoError(t, r.CancelEvent())
	aCanceled, err := r.Emit("a", "", nil)
	require.NoError(t, err)
	assert.True(t, aCanceled)

	close(release)
	wg.Wait()
	assert.False(t, bCanceled)
}

func TestEmitNetSkipsLocalHandlers(t *testing.T) {
	r := NewRuntime("jsbench")

	local, network := 0, 0
	require.NoError(t, r.On("chat", func(Event) { local++ }))
	require.NoError(t, r.OnNet("chat", func(Event) { network++ }))

	_, err := r.EmitNet("chat", "net:3", "hi")
	require.NoError(t, err)
	assert.Equal(t, 0, local)
	assert.Equal(t, 1, network)

	_, err = r.Emit("chat", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, local)
	assert.Equal(t, 2, network)
	assert.Equal(t, 2, r.Handlers("chat"))
}

func TestExportImport(t *testing.T) {
	r := NewRuntime("jsbench")

	require.NoError(t, r.Export("exportBench", func(args ...any) (any, error) {
		return len(args), nil
	}))

	fn, err := r.Import("jsbench", "exportBench")
	require.NoError(t, err)
	out, err := fn(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	_, err = r.Import("wasmbench", "exportBench")
	assert.ErrorIs(t, err, ErrExportNotFound)

	assert.ErrorIs(t, r.Export("nil", nil), ErrNoHandler)
	assert.ErrorIs(t, r.On("nil", nil), ErrNoHandler)
	assert.Equal(t, "__cfx_export_jsbench_exportBench", ExportEventName("jsbench", "exportBench"))
}
