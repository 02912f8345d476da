package windowactor

import (
	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

// State is one of the actor's four cooperative states.
type State int

const (
	StateInitializing State = iota
	StateReady
	StateWindowing
	StatePausing
)

// String renders the state for logging.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateWindowing:
		return "windowing"
	case StatePausing:
		return "pausing"
	default:
		return "unknown"
	}
}

// windowState is the actor's private scratchpad, threaded through every
// transition (spec: WindowState). ReplyTo is set once by Start and never
// mutated afterward; Window is present in windowing/pausing and absent in
// ready between windows.
type windowState struct {
	Window  *signal.Window
	ReplyTo listener.WindowEventListener
}
