package windowactor

import (
	"fmt"
	"time"

	"github.com/arrowsignal/windowengine/pkg/advance"
	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/matcher"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

// step is the actor's pure transition function: given the current state,
// its scratchpad, and the next command off the mailbox, it returns the
// state to move to and the effects the run loop must apply. step never
// sends on a channel, calls the clock, or touches the bus directly — every
// one of those is an effect the caller interprets.
func step(
	state State,
	ws windowState,
	cmd Command,
	adv advance.Advancer,
	m matcher.PatternMatcher,
	now time.Time,
	resumeDelay time.Duration,
) (State, []effect) {
	switch c := cmd.(type) {
	case Start:
		return stepStart(state, c)
	case OpenWindow:
		return stepOpenWindow(state, c)
	case HealthSignal:
		return stepHealthSignal(state, ws, c)
	case AddToWindow:
		return stepAddToWindow(state, ws, c, adv)
	case AdvanceWindow:
		return stepAdvanceWindow(state, c, m)
	case CloseWindow:
		return stepCloseWindow(state, c, adv, m)
	case CloseCurrentWindow:
		return stepCloseCurrentWindow(state, ws)
	case Flush:
		return stepFlush(state, ws, resumeDelay)
	case Pause:
		return stepPause(state, ws, c)
	case Resume:
		return stepResume(state, ws)
	case Tick:
		return stepTick(state, ws, now)
	case GetSnapshot:
		return stepGetSnapshot(state, ws, c)
	case Stop:
		return stepStop(state, ws)
	default:
		return state, []effect{invariantFailEffect{Reason: fmt.Sprintf("unknown command %T", cmd)}}
	}
}

func invariant(reason string) []effect {
	return []effect{invariantFailEffect{Reason: reason}}
}

func stepStart(state State, c Start) (State, []effect) {
	if state != StateInitializing {
		return state, invariant("Start received outside initializing")
	}
	return StateReady, []effect{
		setReplyToEffect{ReplyTo: c.ReplyTo},
		selfPostEffect{Cmd: OpenWindow{Window: c.Window}},
	}
}

func stepOpenWindow(state State, c OpenWindow) (State, []effect) {
	if state != StateReady {
		return state, invariant("OpenWindow received outside ready")
	}
	effects := []effect{
		setWindowEffect{Window: &c.Window},
		emitEffect{Event: listener.Event{Kind: listener.Opened, Window: c.Window}},
	}
	if c.MaybeSignal != nil {
		effects = append(effects, selfPostEffect{Cmd: HealthSignal{Signal: *c.MaybeSignal}})
	}
	effects = append(effects, unstashEffect{})
	return StateWindowing, effects
}

func stepHealthSignal(state State, ws windowState, c HealthSignal) (State, []effect) {
	if state != StateWindowing {
		return state, []effect{stashEffect{Cmd: c}}
	}
	return state, []effect{selfPostEffect{Cmd: AddToWindow{Signal: c.Signal, Window: *ws.Window}}}
}

func stepAddToWindow(state State, ws windowState, c AddToWindow, adv advance.Advancer) (State, []effect) {
	if state != StateWindowing {
		return state, invariant("AddToWindow received outside windowing")
	}
	if ws.Window == nil || !ws.Window.From.Equal(c.Window.From) || !ws.Window.To.Equal(c.Window.To) {
		// The window c was addressed to is no longer current; drop silently.
		return state, nil
	}
	updated := ws.Window.Append(c.Signal)
	effects := []effect{
		setWindowEffect{Window: &updated},
		emitEffect{Event: listener.Event{Kind: listener.AddedToWindow, Window: updated, Signal: c.Signal}},
	}
	if next, ok := adv.Advance(updated, false); ok {
		effects = append(effects, selfPostEffect{Cmd: AdvanceWindow{Window: updated, Next: next}})
	}
	return state, effects
}

func stepAdvanceWindow(state State, c AdvanceWindow, m matcher.PatternMatcher) (State, []effect) {
	if state != StateWindowing && state != StateReady {
		return state, invariant("AdvanceWindow received outside windowing/ready")
	}

	next := c.Next
	next.PriorData = c.Window.Data

	effects := []effect{
		emitEffect{Event: listener.Event{
			Kind:      listener.Advanced,
			NewWindow: next,
			Data:      signal.WindowData{Signals: c.Window.Data, Frequency: c.Window.Duration()},
		}},
	}
	effects = append(effects, matchEffects(m, c.Window)...)

	if state == StateWindowing {
		effects = append(effects, setWindowEffect{Window: &next})
		return StateWindowing, effects
	}
	effects = append(effects, selfPostEffect{Cmd: OpenWindow{Window: next}})
	return StateReady, effects
}

func stepCloseWindow(state State, c CloseWindow, adv advance.Advancer, m matcher.PatternMatcher) (State, []effect) {
	if state != StateWindowing {
		return state, invariant("CloseWindow received outside windowing")
	}
	effects := []effect{
		emitEffect{Event: listener.Event{
			Kind: listener.Closed,
			Window: c.Window,
			Data: signal.WindowData{Signals: c.Window.Data, Frequency: c.Window.Duration()},
		}},
		setWindowEffect{Window: nil},
	}
	if c.Advance {
		next, ok := adv.Advance(c.Window, true)
		if !ok {
			return StateReady, append(effects, invariantFailEffect{Reason: "forced Advance produced no next window"})
		}
		effects = append(effects, selfPostEffect{Cmd: AdvanceWindow{Window: c.Window, Next: next}})
		return StateReady, effects
	}
	effects = append(effects, matchEffects(m, c.Window)...)
	return StateReady, effects
}

func stepCloseCurrentWindow(state State, ws windowState) (State, []effect) {
	if state != StateWindowing || ws.Window == nil {
		return state, invariant("CloseCurrentWindow received outside windowing")
	}
	return state, []effect{selfPostEffect{Cmd: CloseWindow{Window: *ws.Window, Advance: true}}}
}

func stepFlush(state State, ws windowState, resumeDelay time.Duration) (State, []effect) {
	if state != StateWindowing || ws.Window == nil {
		return state, invariant("Flush received outside windowing")
	}
	flushed := ws.Window.Flushed()
	return state, []effect{
		setWindowEffect{Window: &flushed},
		selfPostEffect{Cmd: Pause{Delay: resumeDelay}},
	}
}

func stepPause(state State, ws windowState, c Pause) (State, []effect) {
	if state != StateWindowing || ws.Window == nil {
		return state, invariant("Pause received outside windowing")
	}
	return StatePausing, []effect{
		emitEffect{Event: listener.Event{Kind: listener.Paused, Window: *ws.Window}},
		armTimerEffect{Delay: c.Delay, Cmd: Resume{}},
	}
}

func stepResume(state State, ws windowState) (State, []effect) {
	if state != StatePausing || ws.Window == nil {
		return state, invariant("Resume received outside pausing")
	}
	return StateWindowing, []effect{
		emitEffect{Event: listener.Event{Kind: listener.Resumed, Window: *ws.Window}},
	}
}

func stepTick(state State, ws windowState, now time.Time) (State, []effect) {
	if state != StateWindowing || ws.Window == nil {
		return state, nil
	}
	if !ws.Window.Expired(now) {
		return state, nil
	}
	return state, []effect{selfPostEffect{Cmd: CloseWindow{Window: *ws.Window, Advance: true}}}
}

func stepGetSnapshot(state State, ws windowState, c GetSnapshot) (State, []effect) {
	var snap *signal.Snapshot
	if ws.Window != nil {
		s := ws.Window.Snapshot()
		snap = &s
	}
	return state, []effect{snapshotReplyEffect{Reply: c.Reply, Snapshot: snap}}
}

func stepStop(state State, ws windowState) (State, []effect) {
	var effects []effect
	if ws.Window != nil {
		effects = append(effects, emitEffect{Event: listener.Event{
			Kind: listener.Closed,
			Window: *ws.Window,
			Data: signal.WindowData{Signals: ws.Window.Data, Frequency: ws.Window.Duration()},
		}})
	}
	stopped := listener.Event{Kind: listener.Stopped, HasWindow: ws.Window != nil}
	if ws.Window != nil {
		stopped.Window = *ws.Window
	}
	effects = append(effects,
		emitEffect{Event: stopped},
		stopEffect{},
	)
	return state, effects
}

// synthesizedSource is stamped onto every matcher side-effect signal before
// republishing, so downstream consumers can tell engine output apart from
// the raw observations that fed it.
var synthesizedSource = signal.Source{Component: "windowactor"}

// matchEffects runs the matcher over a closing window's signals and turns
// any synthesized side-effect signals into a publish effect.
func matchEffects(m matcher.PatternMatcher, w signal.Window) []effect {
	if m == nil {
		return nil
	}
	result := m.Search(w.Data, w.Duration())
	if len(result.SideEffect.Signals) == 0 {
		return nil
	}
	rewritten := make([]signal.HealthSignal, len(result.SideEffect.Signals))
	for i, s := range result.SideEffect.Signals {
		rewritten[i] = s.WithSource(synthesizedSource)
	}
	return []effect{publishEffect{Signals: rewritten}}
}
