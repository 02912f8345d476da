// Package advance implements the windowing engine's pluggable advance
// policy: given a window and a force hint, decide whether (and how) to
// roll to the next window.
package advance

import (
	"github.com/arrowsignal/windowengine/internal/clock"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

// Advancer is a pure policy: given the current window and a force hint,
// return the next window to roll to, if any. Implementations must never
// produce overlapping windows and must never rewind (next.From ==
// current.To always), and must return ok=true whenever force is true.
type Advancer interface {
	Advance(current signal.Window, force bool) (next signal.Window, ok bool)
}

func rollContiguous(current signal.Window) signal.Window {
	frequency := current.Duration()
	return signal.Window{
		From: current.To,
		To:   current.To.Add(frequency),
	}
}

// TumblingAdvancer rolls a window once the clock reaches its end.
type TumblingAdvancer struct {
	Clock clock.Clock
}

// Advance implements Advancer.
func (a TumblingAdvancer) Advance(current signal.Window, force bool) (signal.Window, bool) {
	if force || current.Expired(a.Clock.Now()) {
		return rollContiguous(current), true
	}
	return signal.Window{}, false
}

// CountAdvancer rolls a window once it has accumulated at least Threshold
// signals.
type CountAdvancer struct {
	Threshold int
}

// Advance implements Advancer.
func (a CountAdvancer) Advance(current signal.Window, force bool) (signal.Window, bool) {
	if force || len(current.Data) >= a.Threshold {
		return rollContiguous(current), true
	}
	return signal.Window{}, false
}

// CompositeAdvancer rolls as soon as any child advancer would roll. Under
// force=true it always rolls, even if no child would otherwise fire,
// satisfying the engine's "force always yields a next window" contract.
type CompositeAdvancer struct {
	Advancers []Advancer
}

// Advance implements Advancer.
func (a CompositeAdvancer) Advance(current signal.Window, force bool) (signal.Window, bool) {
	for _, child := range a.Advancers {
		if _, ok := child.Advance(current, false); ok {
			return rollContiguous(current), true
		}
	}
	if force {
		return rollContiguous(current), true
	}
	return signal.Window{}, false
}
