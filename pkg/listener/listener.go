// Package listener defines the windowing engine's lifecycle event sink,
// distinct from the side-effect signal bus: it receives Opened/Advanced/
// Closed/AddedToWindow/Paused/Resumed/Stopped notifications as the actor
// transitions.
package listener

import "github.com/arrowsignal/windowengine/pkg/signal"

// EventKind tags a WindowEvent's variant.
type EventKind int

// The seven lifecycle events the actor may emit, in spec order.
const (
	Opened EventKind = iota
	Advanced
	Closed
	AddedToWindow
	Paused
	Resumed
	Stopped
)

// Event is a tagged union over the lifecycle notifications the actor emits.
// Only the fields relevant to Kind are populated.
type Event struct {
	Kind EventKind

	Window    signal.Window  // Opened, Closed, AddedToWindow, Paused, Resumed, Stopped (if any)
	NewWindow signal.Window  // Advanced
	Data      signal.WindowData // Advanced, Closed
	Signal    signal.HealthSignal // AddedToWindow
	HasWindow bool           // Stopped: whether Window is meaningful
}

// WindowEventListener receives lifecycle events from one WindowActor. Accept
// returns nothing, so the actor cannot tell whether an event was taken: a
// listener that cannot take an event drops it itself (as Channel does when
// full), nothing is logged, and the actor continues.
type WindowEventListener interface {
	Accept(Event)
}

// Channel adapts a WindowEventListener to a buffered Go channel. Callers
// construct it and pass it to Handle.Start; the Handle uses whatever
// listener it is given as is.
type Channel struct {
	Events chan Event
}

// NewChannel creates a Channel-backed listener with the given buffer depth.
func NewChannel(depth int) *Channel {
	return &Channel{Events: make(chan Event, depth)}
}

// Accept implements WindowEventListener. A full channel drops the event
// (ListenerUnavailable) rather than blocking the actor.
func (c *Channel) Accept(e Event) {
	select {
	case c.Events <- e:
	default:
	}
}

// Func adapts a plain function to a WindowEventListener.
type Func func(Event)

// Accept implements WindowEventListener.
func (f Func) Accept(e Event) { f(e) }
