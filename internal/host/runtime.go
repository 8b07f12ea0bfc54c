package host

import (
	"fmt"
	"sync"
)

type subscription struct {
	scope   Scope
	handler EventHandler
}

// Runtime is an in-process host. It keeps a resource list, an event
// table and an export table, and is safe for concurrent use. Cancellation
// travels with the Event a handler receives, so concurrent dispatches on
// different goroutines never see each other's state.
type Runtime struct {
	resource string

	mu        sync.RWMutex
	resources []string
	handlers  map[string][]subscription
	exports   map[string]ExportFunc
}

// NewRuntime creates a runtime for the named resource. The resource itself
// is always counted as started.
func NewRuntime(resource string, resources ...string) *Runtime {
	r := &Runtime{
		resource: resource,
		handlers: make(map[string][]subscription),
		exports:  make(map[string]ExportFunc),
	}
	r.StartResource(resource)
	for _, name := range resources {
		r.StartResource(name)
	}
	return r
}

// Resource returns the name of the resource this runtime hosts
func (r *Runtime) Resource() string {
	return r.resource
}

// StartResource marks a resource as started. Idempotent.
func (r *Runtime) StartResource(name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.resources {
		if cur == name {
			return
		}
	}
	r.resources = append(r.resources, name)
}

// StopResource marks a resource as stopped. Idempotent.
func (r *Runtime) StopResource(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.resources {
		if cur == name {
			r.resources = append(r.resources[:i], r.resources[i+1:]...)
			return
		}
	}
}

// GetNumResources returns the number of started resources
func (r *Runtime) GetNumResources() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources), nil
}

// CancelEvent is the native form of Event.Cancel. A bare call on the
// runtime carries no dispatch, so it is always outside one and does
// nothing. Handlers cancel through the Event they were given.
func (r *Runtime) CancelEvent() error {
	return nil
}

// On subscribes a local-scope handler
func (r *Runtime) On(name string, handler EventHandler) error {
	return r.subscribe(name, handler, ScopeLocal)
}

// OnNet subscribes a handler that network sources may trigger too
func (r *Runtime) OnNet(name string, handler EventHandler) error {
	return r.subscribe(name, handler, ScopeNetwork)
}

func (r *Runtime) subscribe(name string, handler EventHandler, scope Scope) error {
	if handler == nil {
		return fmt.Errorf("subscribe %q: %w", name, ErrNoHandler)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = append(r.handlers[name], subscription{scope: scope, handler: handler})
	return nil
}

// Emit triggers a local event. Handlers run synchronously in
// registration order. Returns true if any handler canceled the event.
func (r *Runtime) Emit(name, source string, payload any) (bool, error) {
	return r.emit(name, source, payload, ScopeLocal)
}

// EmitNet triggers an event from a network source. Local-scope
// handlers are skipped.
func (r *Runtime) EmitNet(name, source string, payload any) (bool, error) {
	return r.emit(name, source, payload, ScopeNetwork)
}

func (r *Runtime) emit(name, source string, payload any, origin Scope) (bool, error) {
	r.mu.RLock()
	subs := make([]subscription, len(r.handlers[name]))
	copy(subs, r.handlers[name])
	r.mu.RUnlock()

	ev := Event{Name: name, Source: source, Payload: payload, dispatch: &dispatch{}}
	for _, sub := range subs {
		if origin == ScopeNetwork && sub.scope == ScopeLocal {
			continue
		}
		sub.handler(ev)
	}
	return ev.Canceled(), nil
}

// Handlers returns the number of handlers subscribed to name
func (r *Runtime) Handlers(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[name])
}

// Export registers fn under this resource's export event name
func (r *Runtime) Export(name string, fn ExportFunc) error {
	if fn == nil {
		return fmt.Errorf("export %q: %w", name, ErrNoHandler)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports[ExportEventName(r.resource, name)] = fn
	return nil
}

// Import resolves an export registered by resource
func (r *Runtime) Import(resource, name string) (ExportFunc, error) {
	r.mu.RLock()
	fn, ok := r.exports[ExportEventName(resource, name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrExportNotFound, resource, name)
	}
	return fn, nil
}

var (
	_ Host     = (*Runtime)(nil)
	_ Importer = (*Runtime)(nil)
	_ Emitter  = (*Runtime)(nil)
)
