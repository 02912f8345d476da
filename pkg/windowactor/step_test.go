package windowactor

import (
	"testing"
	"time"

	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/matcher"
	"github.com/arrowsignal/windowengine/pkg/signal"
)

type stubAdvancer struct {
	next signal.Window
	ok   bool
}

func (s stubAdvancer) Advance(signal.Window, bool) (signal.Window, bool) { return s.next, s.ok }

type stubMatcher struct {
	result matcher.Result
}

func (s stubMatcher) Search([]signal.HealthSignal, time.Duration) matcher.Result { return s.result }

func hasEffect[T effect](effects []effect) (T, bool) {
	for _, e := range effects {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestStepStartInvalidOutsideInitializing(t *testing.T) {
	_, effects := step(StateReady, windowState{}, Start{}, nil, nil, time.Time{}, 0)
	if _, ok := hasEffect[invariantFailEffect](effects); !ok {
		t.Fatalf("expected invariantFailEffect, got %+v", effects)
	}
}

func TestStepStartTransitionsAndSelfPostsOpenWindow(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	next, effects := step(StateInitializing, windowState{}, Start{Window: w}, nil, nil, time.Time{}, 0)
	if next != StateReady {
		t.Fatalf("expected ready, got %v", next)
	}
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted OpenWindow, got %+v", effects)
	}
	if _, ok := sp.Cmd.(OpenWindow); !ok {
		t.Fatalf("expected OpenWindow self-post, got %T", sp.Cmd)
	}
}

func TestStepOpenWindowEmitsOpenedAndUnstashes(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	next, effects := step(StateReady, windowState{}, OpenWindow{Window: w}, nil, nil, time.Time{}, 0)
	if next != StateWindowing {
		t.Fatalf("expected windowing, got %v", next)
	}
	em, ok := hasEffect[emitEffect](effects)
	if !ok || em.Event.Kind != listener.Opened {
		t.Fatalf("expected Opened event, got %+v", effects)
	}
	if _, ok := hasEffect[unstashEffect](effects); !ok {
		t.Fatalf("expected unstash effect, got %+v", effects)
	}
}

func TestStepHealthSignalStashesOutsideWindowing(t *testing.T) {
	for _, s := range []State{StateInitializing, StateReady, StatePausing} {
		_, effects := step(s, windowState{}, HealthSignal{Signal: signal.HealthSignal{Name: "x"}}, nil, nil, time.Time{}, 0)
		if _, ok := hasEffect[stashEffect](effects); !ok {
			t.Fatalf("state %v: expected stash effect, got %+v", s, effects)
		}
	}
}

func TestStepHealthSignalRoutesToAddToWindow(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	_, effects := step(StateWindowing, windowState{Window: &w}, HealthSignal{Signal: signal.HealthSignal{Name: "x"}}, nil, nil, time.Time{}, 0)
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-post, got %+v", effects)
	}
	if _, ok := sp.Cmd.(AddToWindow); !ok {
		t.Fatalf("expected AddToWindow self-post, got %T", sp.Cmd)
	}
}

func TestStepAddToWindowDropsStaleWindow(t *testing.T) {
	current := signal.For(time.Now(), time.Minute)
	stale := signal.For(current.From.Add(-time.Hour), time.Minute)
	_, effects := step(StateWindowing, windowState{Window: &current}, AddToWindow{Signal: signal.HealthSignal{Name: "x"}, Window: stale}, stubAdvancer{}, nil, time.Time{}, 0)
	if len(effects) != 0 {
		t.Fatalf("expected no effects for a stale window, got %+v", effects)
	}
}

func TestStepAddToWindowAppendsAndAdvancesWhenPolicySays(t *testing.T) {
	current := signal.For(time.Now(), time.Minute)
	next := signal.For(current.To, time.Minute)
	adv := stubAdvancer{next: next, ok: true}

	_, effects := step(StateWindowing, windowState{Window: &current}, AddToWindow{Signal: signal.HealthSignal{Name: "x"}, Window: current}, adv, nil, time.Time{}, 0)

	sw, ok := hasEffect[setWindowEffect](effects)
	if !ok || len(sw.Window.Data) != 1 {
		t.Fatalf("expected window updated with appended signal, got %+v", effects)
	}
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted AdvanceWindow, got %+v", effects)
	}
	if _, ok := sp.Cmd.(AdvanceWindow); !ok {
		t.Fatalf("expected AdvanceWindow self-post, got %T", sp.Cmd)
	}
}

func TestStepAdvanceWindowFromWindowingStaysWindowing(t *testing.T) {
	current := signal.For(time.Now(), time.Minute)
	next := signal.For(current.To, time.Minute)
	state, effects := step(StateWindowing, windowState{Window: &current}, AdvanceWindow{Window: current, Next: next}, nil, stubMatcher{}, time.Time{}, 0)
	if state != StateWindowing {
		t.Fatalf("expected to stay windowing, got %v", state)
	}
	sw, ok := hasEffect[setWindowEffect](effects)
	if !ok {
		t.Fatalf("expected window swapped in-place, got %+v", effects)
	}
	if !sw.Window.From.Equal(next.From) {
		t.Fatalf("expected next window installed")
	}
	if _, ok := hasEffect[selfPostEffect](effects); ok {
		t.Fatalf("did not expect an OpenWindow self-post when advancing within windowing")
	}
}

func TestStepAdvanceWindowFromReadySelfPostsOpenWindow(t *testing.T) {
	current := signal.For(time.Now(), time.Minute)
	next := signal.For(current.To, time.Minute)
	state, effects := step(StateReady, windowState{}, AdvanceWindow{Window: current, Next: next}, nil, stubMatcher{}, time.Time{}, 0)
	if state != StateReady {
		t.Fatalf("expected to remain ready pending OpenWindow, got %v", state)
	}
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted OpenWindow, got %+v", effects)
	}
	ow, ok := sp.Cmd.(OpenWindow)
	if !ok {
		t.Fatalf("expected OpenWindow self-post, got %T", sp.Cmd)
	}
	if !ow.Window.From.Equal(next.From) {
		t.Fatalf("expected next window carried into OpenWindow")
	}
}

func TestStepAdvanceWindowPublishesMatcherSideEffects(t *testing.T) {
	current := signal.For(time.Now(), time.Minute).Append(signal.HealthSignal{Name: "cpu.high"})
	next := signal.For(current.To, time.Minute)
	m := stubMatcher{result: matcher.Result{SideEffect: matcher.SideEffect{Signals: []signal.HealthSignal{{Name: "cpu_high.threshold_exceeded"}}}}}

	_, effects := step(StateWindowing, windowState{Window: &current}, AdvanceWindow{Window: current, Next: next}, nil, m, time.Time{}, 0)
	pub, ok := hasEffect[publishEffect](effects)
	if !ok || len(pub.Signals) != 1 {
		t.Fatalf("expected one published side-effect signal, got %+v", effects)
	}
	if got := pub.Signals[0].Source.Component; got != "windowactor" {
		t.Fatalf("expected synthesized signal stamped with Component=windowactor, got %q", got)
	}
}

func TestStepCloseWindowWithAdvanceSelfPostsAdvanceWindow(t *testing.T) {
	current := signal.For(time.Now(), time.Minute)
	next := signal.For(current.To, time.Minute)
	adv := stubAdvancer{next: next, ok: true}

	state, effects := step(StateWindowing, windowState{Window: &current}, CloseWindow{Window: current, Advance: true}, adv, stubMatcher{}, time.Time{}, 0)
	if state != StateReady {
		t.Fatalf("expected ready after close, got %v", state)
	}
	em, ok := hasEffect[emitEffect](effects)
	if !ok || em.Event.Kind != listener.Closed {
		t.Fatalf("expected Closed event, got %+v", effects)
	}
	if _, ok := hasEffect[setWindowEffect](effects); !ok {
		t.Fatalf("expected window cleared, got %+v", effects)
	}
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted AdvanceWindow, got %+v", effects)
	}
	if _, ok := sp.Cmd.(AdvanceWindow); !ok {
		t.Fatalf("expected AdvanceWindow self-post, got %T", sp.Cmd)
	}
}

func TestStepCloseWindowWithoutAdvanceRunsMatcherDirectly(t *testing.T) {
	current := signal.For(time.Now(), time.Minute).Append(signal.HealthSignal{Name: "x"})
	m := stubMatcher{result: matcher.Result{SideEffect: matcher.SideEffect{Signals: []signal.HealthSignal{{Name: "x.side_effect"}}}}}

	state, effects := step(StateWindowing, windowState{Window: &current}, CloseWindow{Window: current, Advance: false}, stubAdvancer{}, m, time.Time{}, 0)
	if state != StateReady {
		t.Fatalf("expected ready, got %v", state)
	}
	if _, ok := hasEffect[selfPostEffect](effects); ok {
		t.Fatalf("did not expect an AdvanceWindow self-post when Advance is false")
	}
	pub, ok := hasEffect[publishEffect](effects)
	if !ok || len(pub.Signals) != 1 {
		t.Fatalf("expected the matcher's side effects published directly, got %+v", effects)
	}
}

func TestStepFlushClearsDataAndSelfPostsPause(t *testing.T) {
	current := signal.For(time.Now(), time.Minute).Append(signal.HealthSignal{Name: "x"})
	_, effects := step(StateWindowing, windowState{Window: &current}, Flush{}, nil, nil, time.Time{}, 200*time.Millisecond)

	sw, ok := hasEffect[setWindowEffect](effects)
	if !ok || len(sw.Window.Data) != 0 {
		t.Fatalf("expected data cleared, got %+v", effects)
	}
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted Pause, got %+v", effects)
	}
	p, ok := sp.Cmd.(Pause)
	if !ok || p.Delay != 200*time.Millisecond {
		t.Fatalf("expected Pause(200ms) self-post, got %+v", sp.Cmd)
	}
}

func TestStepPauseEmitsPausedAndArmsTimer(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	state, effects := step(StateWindowing, windowState{Window: &w}, Pause{Delay: time.Second}, nil, nil, time.Time{}, 0)
	if state != StatePausing {
		t.Fatalf("expected pausing, got %v", state)
	}
	em, ok := hasEffect[emitEffect](effects)
	if !ok || em.Event.Kind != listener.Paused {
		t.Fatalf("expected Paused event, got %+v", effects)
	}
	timer, ok := hasEffect[armTimerEffect](effects)
	if !ok || timer.Delay != time.Second {
		t.Fatalf("expected armed timer for 1s, got %+v", effects)
	}
	if _, ok := timer.Cmd.(Resume); !ok {
		t.Fatalf("expected armed timer to fire Resume, got %T", timer.Cmd)
	}
}

func TestStepResumeEmitsResumedWithoutUnstash(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	state, effects := step(StatePausing, windowState{Window: &w}, Resume{}, nil, nil, time.Time{}, 0)
	if state != StateWindowing {
		t.Fatalf("expected windowing, got %v", state)
	}
	em, ok := hasEffect[emitEffect](effects)
	if !ok || em.Event.Kind != listener.Resumed {
		t.Fatalf("expected Resumed event, got %+v", effects)
	}
	if _, ok := hasEffect[unstashEffect](effects); ok {
		t.Fatalf("Resume must not unstash")
	}
}

func TestStepTickIgnoredOutsideWindowing(t *testing.T) {
	_, effects := step(StateReady, windowState{}, Tick{}, nil, nil, time.Now(), 0)
	if len(effects) != 0 {
		t.Fatalf("expected Tick to be a no-op in ready, got %+v", effects)
	}
}

func TestStepTickSelfPostsCloseWindowWhenExpired(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	now := w.To.Add(time.Second)
	_, effects := step(StateWindowing, windowState{Window: &w}, Tick{}, nil, nil, now, 0)
	sp, ok := hasEffect[selfPostEffect](effects)
	if !ok {
		t.Fatalf("expected self-posted CloseWindow, got %+v", effects)
	}
	cw, ok := sp.Cmd.(CloseWindow)
	if !ok || !cw.Advance {
		t.Fatalf("expected CloseWindow{Advance:true} self-post, got %+v", sp.Cmd)
	}
}

func TestStepTickNotYetExpired(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	_, effects := step(StateWindowing, windowState{Window: &w}, Tick{}, nil, nil, w.From, 0)
	if len(effects) != 0 {
		t.Fatalf("expected no effects before expiry, got %+v", effects)
	}
}

func TestStepGetSnapshotNilWhenNoWindow(t *testing.T) {
	reply := make(chan *signal.Snapshot, 1)
	_, effects := step(StateReady, windowState{}, GetSnapshot{Reply: reply}, nil, nil, time.Time{}, 0)
	sr, ok := hasEffect[snapshotReplyEffect](effects)
	if !ok || sr.Snapshot != nil {
		t.Fatalf("expected nil snapshot, got %+v", effects)
	}
}

func TestStepGetSnapshotCopiesWindowData(t *testing.T) {
	w := signal.For(time.Now(), time.Minute).Append(signal.HealthSignal{Name: "x"})
	reply := make(chan *signal.Snapshot, 1)
	_, effects := step(StateWindowing, windowState{Window: &w}, GetSnapshot{Reply: reply}, nil, nil, time.Time{}, 0)
	sr, ok := hasEffect[snapshotReplyEffect](effects)
	if !ok || sr.Snapshot == nil || len(sr.Snapshot.Data) != 1 {
		t.Fatalf("expected snapshot with one signal, got %+v", effects)
	}
}

func TestStepStopEmitsClosedThenStoppedWithOpenWindow(t *testing.T) {
	w := signal.For(time.Now(), time.Minute)
	_, effects := step(StateWindowing, windowState{Window: &w}, Stop{}, nil, nil, time.Time{}, 0)
	if len(effects) != 3 {
		t.Fatalf("expected Closed, Stopped, stop effects, got %+v", effects)
	}
	first, ok := effects[0].(emitEffect)
	if !ok || first.Event.Kind != listener.Closed {
		t.Fatalf("expected Closed first, got %+v", effects[0])
	}
	second, ok := effects[1].(emitEffect)
	if !ok || second.Event.Kind != listener.Stopped || !second.Event.HasWindow {
		t.Fatalf("expected Stopped with HasWindow=true, got %+v", effects[1])
	}
	if _, ok := effects[2].(stopEffect); !ok {
		t.Fatalf("expected a terminal stop effect, got %+v", effects[2])
	}
}

func TestStepStopWithNoWindowSkipsClosed(t *testing.T) {
	_, effects := step(StateReady, windowState{}, Stop{}, nil, nil, time.Time{}, 0)
	if len(effects) != 2 {
		t.Fatalf("expected Stopped + stop effects only, got %+v", effects)
	}
	ev, ok := effects[0].(emitEffect)
	if !ok || ev.Event.Kind != listener.Stopped || ev.Event.HasWindow {
		t.Fatalf("expected Stopped with HasWindow=false, got %+v", effects[0])
	}
}
