// Package signal holds the windowing engine's data model: the health
// signals flowing through it and the tumbling windows that accumulate them.
package signal

import "time"

// Source identifies where a HealthSignal came from. The engine rewrites
// Component on synthesized side-effect signals before republishing them
// (see HealthSignal.WithSource, called by the window actor when it publishes
// matcher output), so downstream consumers can distinguish raw
// observations from matcher output.
type Source struct {
	System    string
	Component string
	Instance  string
}

// HealthSignal is an opaque observability event: a name, a timestamp, the
// source that produced it, and an open payload bag for anything else a
// matcher cares about.
type HealthSignal struct {
	Name      string
	Timestamp time.Time
	Source    Source
	Fields    map[string]any
}

// WithSource returns a copy of the signal with Source replaced. Used when
// republishing matcher side effects so the original observation is left
// untouched.
func (s HealthSignal) WithSource(src Source) HealthSignal {
	s.Source = src
	return s
}
