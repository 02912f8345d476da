package windowactor

import (
	"time"

	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

// Command is the sealed set of messages a WindowActor's mailbox accepts.
// Every variant is a plain struct; step() dispatches on the concrete type.
type Command interface {
	isCommand()
}

// Start installs replyTo and self-posts the first OpenWindow. Valid only
// from initializing.
type Start struct {
	Window  signal.Window
	ReplyTo listener.WindowEventListener
}

// OpenWindow installs w as the current window and transitions to windowing.
// MaybeSignal, if non-nil, is re-delivered once the window is open. Valid
// only from ready.
type OpenWindow struct {
	Window       signal.Window
	MaybeSignal  *signal.HealthSignal
}

// HealthSignal is an inbound reading. Stashed outside windowing, routed to
// AddToWindow inside it.
type HealthSignal struct {
	Signal signal.HealthSignal
}

// AddToWindow appends Signal to Window if Window is still current. Valid
// only from windowing.
type AddToWindow struct {
	Signal signal.HealthSignal
	Window signal.Window
}

// AdvanceWindow closes out Window in favor of Next. Valid from windowing
// (burst advance, stays windowing) or ready (post-close advance, self-posts
// OpenWindow).
type AdvanceWindow struct {
	Window signal.Window
	Next   signal.Window
}

// CloseWindow ends Window. If Advance, an AdvanceWindow is self-posted
// (force=true is guaranteed to produce a Next); otherwise the matcher runs
// once more and the actor returns to ready with no successor. Valid only
// from windowing.
type CloseWindow struct {
	Window  signal.Window
	Advance bool
}

// CloseCurrentWindow is CloseWindow{Window: <current>, Advance: true}
// resolved against live state. Valid only from windowing.
type CloseCurrentWindow struct{}

// Flush clears the current window's data in place, keeping its bounds, then
// self-posts Pause(resumeDelay). Valid only from windowing.
type Flush struct{}

// Pause emits WindowPaused, arms a one-shot timer for Delay, and transitions
// to pausing. Valid only from windowing.
type Pause struct {
	Delay time.Duration
}

// Resume emits WindowResumed and transitions back to windowing without
// draining the stash. Valid only from pausing.
type Resume struct{}

// Tick is the periodic wall-clock check. Ignored outside windowing.
type Tick struct{}

// GetSnapshot answers synchronously, within the same message turn, with the
// current window's data (nil if none).
type GetSnapshot struct {
	Reply chan *signal.Snapshot
}

// Stop closes any open window (emitting Closed) and ends the run loop.
type Stop struct{}

func (Start) isCommand()              {}
func (OpenWindow) isCommand()         {}
func (HealthSignal) isCommand()       {}
func (AddToWindow) isCommand()        {}
func (AdvanceWindow) isCommand()      {}
func (CloseWindow) isCommand()        {}
func (CloseCurrentWindow) isCommand() {}
func (Flush) isCommand()              {}
func (Pause) isCommand()              {}
func (Resume) isCommand()             {}
func (Tick) isCommand()               {}
func (GetSnapshot) isCommand()        {}
func (Stop) isCommand()               {}
