// Package windowactor implements the engine's core state machine: a single
// goroutine that owns one time window at a time, driven by a mailbox of
// commands and a self-post queue it services ahead of the mailbox. The
// transition logic lives in step(), a pure function of (state, scratchpad,
// command) -> (state, effects); Run interprets the effects it returns,
// which is the only place this package touches a channel, the clock, or
// the bus.
package windowactor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arrowsignal/windowengine/internal/clock"
	"github.com/arrowsignal/windowengine/internal/logging"
	"github.com/arrowsignal/windowengine/pkg/advance"
	"github.com/arrowsignal/windowengine/pkg/bus"
	"github.com/arrowsignal/windowengine/pkg/matcher"
)

// Actor is one running instance of the window state machine. A Supervisor
// owns its Run loop and restarts it with a fresh Actor on failure; a Handle
// owns its Mailbox.
type Actor struct {
	advancer    advance.Advancer
	matcher     matcher.PatternMatcher
	bus         bus.SignalBus
	clock       clock.Clock
	logger      *zap.Logger
	resumeDelay time.Duration

	mailbox chan Command
	self    []Command
	stash   []Command

	state State
	ws    windowState

	doneCh chan struct{}
}

// Config bundles an Actor's dependencies; New copies it into a fresh Actor
// so a Supervisor can hand out identical Config values across restarts.
type Config struct {
	Advancer     advance.Advancer
	Matcher      matcher.PatternMatcher
	Bus          bus.SignalBus
	Clock        clock.Clock
	Logger       *zap.Logger
	ResumeDelay  time.Duration
	MailboxDepth int
}

// New constructs an Actor in the initializing state. Call Mailbox to obtain
// the channel callers send commands on, then Run to drive it.
func New(cfg Config) *Actor {
	depth := cfg.MailboxDepth
	if depth < 1 {
		depth = 16
	}
	return &Actor{
		advancer:    cfg.Advancer,
		matcher:     cfg.Matcher,
		bus:         cfg.Bus,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		resumeDelay: cfg.ResumeDelay,
		mailbox:     make(chan Command, depth),
		state:       StateInitializing,
		doneCh:      make(chan struct{}),
	}
}

// Mailbox is the channel external callers (normally a Handle) send commands
// on.
func (a *Actor) Mailbox() chan<- Command { return a.mailbox }

// State reports the actor's current state; safe to call only from the
// goroutine running Run, or after Run has returned.
func (a *Actor) State() State { return a.state }

// Run drives the actor until ctx is cancelled, a Stop command is processed,
// or step reports an invariant violation. A non-nil error means the actor
// crashed and a Supervisor should decide whether to restart it.
func (a *Actor) Run(ctx context.Context) error {
	defer close(a.doneCh)
	if a.logger == nil {
		// No Logger was configured explicitly: fall back to whatever the
		// caller attached to ctx (e.g. cmd/windowengine's root logger),
		// and failing that, the zap global (a no-op until ReplaceGlobals
		// has been called).
		a.logger = logging.Component(ctx, "windowactor")
	}
	for {
		cmd, ok := a.dequeue(ctx)
		if !ok {
			return nil
		}
		stop, err := a.apply(cmd)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func (a *Actor) dequeue(ctx context.Context) (Command, bool) {
	if len(a.self) > 0 {
		cmd := a.self[0]
		a.self = a.self[1:]
		return cmd, true
	}
	select {
	case cmd := <-a.mailbox:
		return cmd, true
	case <-ctx.Done():
		return nil, false
	}
}

func (a *Actor) apply(cmd Command) (stop bool, err error) {
	next, effects := step(a.state, a.ws, cmd, a.advancer, a.matcher, a.clock.Now(), a.resumeDelay)
	a.state = next

	for _, raw := range effects {
		switch e := raw.(type) {
		case setWindowEffect:
			a.ws.Window = e.Window
		case setReplyToEffect:
			a.ws.ReplyTo = e.ReplyTo
		case selfPostEffect:
			a.self = append(a.self, e.Cmd)
		case stashEffect:
			a.stash = append(a.stash, e.Cmd)
		case unstashEffect:
			if len(a.stash) > 0 {
				a.self = append(a.self, a.stash...)
				a.stash = nil
			}
		case emitEffect:
			if a.ws.ReplyTo != nil {
				a.ws.ReplyTo.Accept(e.Event)
			}
		case publishEffect:
			for _, s := range e.Signals {
				if perr := a.bus.Publish(s); perr != nil {
					a.logger.Warn("bus publish failed", zap.String("signal", s.Name), zap.Error(perr))
				}
			}
		case armTimerEffect:
			a.armTimer(e.Delay, e.Cmd)
		case snapshotReplyEffect:
			e.Reply <- e.Snapshot
		case invariantFailEffect:
			err = fmt.Errorf("%w: %s", ErrInvariant, e.Reason)
			stop = true
		case stopEffect:
			stop = true
		}
	}
	return stop, err
}

// armTimer schedules cmd for delivery on the external mailbox once Delay
// elapses on the actor's clock. The goroutine exits without sending if the
// actor has already stopped.
func (a *Actor) armTimer(delay time.Duration, cmd Command) {
	fired := a.clock.After(delay)
	go func() {
		select {
		case <-fired:
		case <-a.doneCh:
			return
		}
		select {
		case a.mailbox <- cmd:
		case <-a.doneCh:
		}
	}()
}
