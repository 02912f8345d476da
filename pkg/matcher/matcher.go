// Package matcher scans a window's signals for patterns and synthesizes
// side-effect signals to republish. Matchers are pure functions of their
// input: identical signals and duration always produce identical results.
package matcher

import (
	"time"

	"github.com/arrowsignal/windowengine/pkg/signal"
	"github.com/arrowsignal/windowengine/pkg/stream"
)

// Match is an opaque descriptor of a pattern hit within a window.
type Match struct {
	Name   string
	Detail string
}

// SideEffect is the set of signals a matcher wants republished.
type SideEffect struct {
	Signals []signal.HealthSignal
}

// Result is the outcome of scanning one window.
type Result struct {
	Matches         []Match
	CapturedSignals []signal.HealthSignal
	SideEffect      SideEffect
	Frequency       time.Duration
	SourceWindow    *signal.Window
}

// PatternMatcher scans source (the window's signals, in delivery order) and
// returns any matches plus the side effects to publish.
type PatternMatcher interface {
	Search(source []signal.HealthSignal, windowDuration time.Duration) Result
}

// ThresholdMatcher fires when at least Threshold signals in the window
// satisfy Predicate, emitting one side-effect signal named
// Name + ".threshold_exceeded".
type ThresholdMatcher struct {
	Name      string
	Predicate func(signal.HealthSignal) bool
	Threshold int
}

// Search implements PatternMatcher by composing the stream kernel's Where
// and Collect over the window's signals rather than hand-rolling a loop.
func (m ThresholdMatcher) Search(source []signal.HealthSignal, windowDuration time.Duration) Result {
	matching, err := stream.Collect(stream.Where(m.Predicate)(stream.FromSlice(source)))
	if err != nil {
		// stream.Where/Collect over an in-memory slice never returns a
		// non-EOS error; guard anyway so a future stream source can't
		// silently corrupt matcher output.
		return Result{Frequency: windowDuration}
	}

	result := Result{
		CapturedSignals: matching,
		Frequency:       windowDuration,
	}
	if len(matching) < m.Threshold {
		return result
	}

	result.Matches = []Match{{Name: m.Name, Detail: "threshold exceeded"}}
	result.SideEffect = SideEffect{Signals: []signal.HealthSignal{{
		Name:      m.Name + ".threshold_exceeded",
		Timestamp: matching[len(matching)-1].Timestamp,
		Fields: map[string]any{
			"count":     len(matching),
			"threshold": m.Threshold,
		},
	}}}
	return result
}

// SequenceMatcher fires once for every occurrence, scanning left to right,
// of an ordered subsequence of signal names within the window.
type SequenceMatcher struct {
	Name     string
	Sequence []string
}

// Search implements PatternMatcher with a simple accumulate-then-fire scan:
// it walks the window once, advancing a cursor into Sequence, and emits a
// completion every time the cursor reaches the end.
func (m SequenceMatcher) Search(source []signal.HealthSignal, windowDuration time.Duration) Result {
	if len(m.Sequence) == 0 {
		return Result{Frequency: windowDuration}
	}

	var (
		matches  []Match
		captured []signal.HealthSignal
		effects  []signal.HealthSignal
		cursor   int
	)

	err := stream.ForEach(func(s signal.HealthSignal) {
		if s.Name != m.Sequence[cursor] {
			return
		}
		captured = append(captured, s)
		cursor++
		if cursor != len(m.Sequence) {
			return
		}
		matches = append(matches, Match{Name: m.Name, Detail: "sequence completed"})
		effects = append(effects, signal.HealthSignal{
			Name:      m.Name + ".sequence_completed",
			Timestamp: s.Timestamp,
			Fields: map[string]any{
				"sequence": append([]string{}, m.Sequence...),
			},
		})
		cursor = 0
	})(stream.FromSlice(source))
	if err != nil {
		return Result{Frequency: windowDuration}
	}

	return Result{
		Matches:         matches,
		CapturedSignals: captured,
		SideEffect:      SideEffect{Signals: effects},
		Frequency:       windowDuration,
	}
}
