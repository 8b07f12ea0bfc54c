package observe

// A measurement is reported once, then forgotten.
// If the host call fails, nothing is reported.
// No retries. No recovery.

import "sync"

// Stream carries measurement entries from timed functions to observers.
// One stream is created per measurement; there is no global bus.
type Stream struct {
	mu        sync.Mutex
	observers []*Observer
}

// NewStream creates an empty measurement stream
func NewStream() *Stream {
	return &Stream{}
}

// Emit hands an entry to every connected observer whose filter matches.
// Delivery is asynchronous: Emit returns before any callback runs.
func (s *Stream) Emit(e Entry) {
	s.mu.Lock()
	targets := make([]*Observer, 0, len(s.observers))
	for _, o := range s.observers {
		if o.accepts(e.Type) {
			targets = append(targets, o)
		}
	}
	s.mu.Unlock()

	for _, o := range targets {
		o.enqueue(e)
	}
}

// Observers returns the number of connected observers
func (s *Stream) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *Stream) add(o *Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Stream) remove(o *Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.observers {
		if cur == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}
