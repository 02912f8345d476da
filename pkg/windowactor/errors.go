package windowactor

import "errors"

// ErrInvariant marks a command delivered to a state that must never see it
// (e.g. OpenWindow while already windowing). The supervisor treats it like
// any other actor failure and restarts according to its backoff policy.
var ErrInvariant = errors.New("windowactor: invariant violated")
