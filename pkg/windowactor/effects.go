package windowactor

import (
	"time"

	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

// effect describes one thing the run loop must do after step() returns;
// step itself never touches a channel, a clock, or the bus, so it can be
// called directly from a test with a bare windowState.
type effect interface {
	isEffect()
}

// setWindowEffect replaces the actor's current window (nil clears it).
type setWindowEffect struct {
	Window *signal.Window
}

// setReplyToEffect installs the listener Start was given.
type setReplyToEffect struct {
	ReplyTo listener.WindowEventListener
}

// selfPostEffect enqueues Cmd ahead of the external mailbox.
type selfPostEffect struct {
	Cmd Command
}

// stashEffect appends Cmd to the stash, replayed on the next unstash.
type stashEffect struct {
	Cmd Command
}

// unstashEffect drains the stash into the self-post queue, in FIFO order.
type unstashEffect struct{}

// emitEffect delivers a lifecycle event to the installed listener.
type emitEffect struct {
	Event listener.Event
}

// publishEffect republishes synthesized signals on the signal bus.
type publishEffect struct {
	Signals []signal.HealthSignal
}

// armTimerEffect schedules Cmd for delivery to the external mailbox after
// Delay, measured against the actor's injected clock.
type armTimerEffect struct {
	Delay time.Duration
	Cmd   Command
}

// snapshotReplyEffect answers a GetSnapshot's one-shot reply channel.
type snapshotReplyEffect struct {
	Reply    chan *signal.Snapshot
	Snapshot *signal.Snapshot
}

// invariantFailEffect ends the actor with ErrInvariant; the supervisor
// decides whether to restart it.
type invariantFailEffect struct {
	Reason string
}

// stopEffect ends the run loop cleanly after the preceding effects (e.g. a
// final Closed/Stopped emit) have been applied.
type stopEffect struct{}

func (setWindowEffect) isEffect()      {}
func (setReplyToEffect) isEffect()     {}
func (selfPostEffect) isEffect()       {}
func (stashEffect) isEffect()          {}
func (unstashEffect) isEffect()        {}
func (emitEffect) isEffect()           {}
func (publishEffect) isEffect()        {}
func (armTimerEffect) isEffect()       {}
func (snapshotReplyEffect) isEffect()  {}
func (invariantFailEffect) isEffect()  {}
func (stopEffect) isEffect()           {}
