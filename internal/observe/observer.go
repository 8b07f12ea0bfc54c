package observe

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import (
	"errors"
	"sync"
)

var (
	ErrNoEntryTypes     = errors.New("observe: at least one entry type is required")
	ErrAlreadyObserving = errors.New("observe: observer is already connected to a stream")
)

// Callback receives one batch of entries. The observer is passed so the
// callback can disconnect it.
type Callback func(list EntryList, o *Observer)

// Observer buffers matching entries and delivers them to its callback on
// a separate goroutine once the emitting call has returned.
type Observer struct {
	callback Callback

	mu        sync.Mutex
	stream    *Stream
	types     map[EntryType]struct{}
	buffer    []Entry
	scheduled bool

	// serializes callback invocations
	deliver sync.Mutex
	pending sync.WaitGroup
}

// NewObserver creates a disconnected observer
func NewObserver(cb Callback) *Observer {
	return &Observer{callback: cb}
}

// Observe connects the observer to stream, filtered by entry types
func (o *Observer) Observe(stream *Stream, types ...EntryType) error {
	if len(types) == 0 {
		return ErrNoEntryTypes
	}

	o.mu.Lock()
	if o.stream != nil {
		o.mu.Unlock()
		return ErrAlreadyObserving
	}
	o.stream = stream
	o.types = make(map[EntryType]struct{}, len(types))
	for _, t := range types {
		o.types[t] = struct{}{}
	}
	o.mu.Unlock()

	stream.add(o)
	return nil
}

// Disconnect stops delivery. Buffered entries are dropped.
// Safe to call from inside the callback and more than once.
func (o *Observer) Disconnect() {
	o.mu.Lock()
	stream := o.stream
	o.stream = nil
	o.types = nil
	o.buffer = nil
	o.mu.Unlock()

	if stream != nil {
		stream.remove(o)
	}
}

// Connected reports whether the observer is attached to a stream
func (o *Observer) Connected() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stream != nil
}

// Wait blocks until all scheduled deliveries have finished
func (o *Observer) Wait() {
	o.pending.Wait()
}

func (o *Observer) accepts(t EntryType) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.types[t]
	return ok
}

func (o *Observer) enqueue(e Entry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stream == nil {
		return
	}
	o.buffer = append(o.buffer, e)
	if !o.scheduled {
		o.scheduled = true
		o.pending.Add(1)
		go o.flush()
	}
}

// flush delivers everything buffered so far as one batch
func (o *Observer) flush() {
	defer o.pending.Done()

	o.deliver.Lock()
	defer o.deliver.Unlock()

	o.mu.Lock()
	entries := o.buffer
	o.buffer = nil
	o.scheduled = false
	connected := o.stream != nil
	o.mu.Unlock()

	if !connected || len(entries) == 0 {
		return
	}
	o.callback(EntryList{entries: entries}, o)
}
