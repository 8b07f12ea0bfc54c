// Package host defines the capabilities a hosted script consumes from its
// runtime, and an in-process Runtime that provides them.
package host

import (
	"errors"
	"sync/atomic"
)

var (
	ErrExportNotFound = errors.New("host: export not found")
	ErrNoHandler      = errors.New("host: handler must not be nil")
)

// Scope of an event subscription. Local handlers cannot be triggered
// from the network.
type Scope int

const (
	ScopeLocal Scope = iota
	ScopeNetwork
)

func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Event is the single opaque argument an event handler receives. It is
// bound to the dispatch that delivered it.
type Event struct {
	Name    string
	Source  string
	Payload any

	dispatch *dispatch
}

type dispatch struct {
	canceled atomic.Bool
}

// Cancel cancels the dispatch that delivered ev. Handlers that run after
// the canceling one still see the event. No-op on an unbound Event.
func (ev Event) Cancel() {
	if ev.dispatch != nil {
		ev.dispatch.canceled.Store(true)
	}
}

// Canceled reports whether an earlier handler canceled this dispatch
func (ev Event) Canceled() bool {
	return ev.dispatch != nil && ev.dispatch.canceled.Load()
}

// EventHandler handles one event
type EventHandler func(ev Event)

// ExportFunc is a capability callable by other resources
type ExportFunc func(args ...any) (any, error)

// Natives are the host functions a script calls directly
type Natives interface {
	GetNumResources() (int, error)
	CancelEvent() error
}

// Exports registers named capabilities
type Exports interface {
	Export(name string, fn ExportFunc) error
}

// Events registers event subscriptions
type Events interface {
	On(name string, handler EventHandler) error
}

// Host is everything a script needs from its runtime
type Host interface {
	Natives
	Exports
	Events
}

// Importer resolves another resource's export
type Importer interface {
	Import(resource, name string) (ExportFunc, error)
}

// Emitter triggers local events
type Emitter interface {
	Emit(name, source string, payload any) (canceled bool, err error)
}

// ExportEventName is the internal event an export is dispatched through
func ExportEventName(resource, name string) string {
	return "__cfx_export_" + resource + "_" + name
}
