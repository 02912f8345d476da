package handle

import "errors"

var (
	// ErrNotRunning is returned by any operation attempted before the
	// Supervisor has installed its first actor. After a crash the crashed
	// actor stays installed until its replacement is built, so this error is
	// not returned in the gap between a crash and the next restart.
	ErrNotRunning = errors.New("handle: actor not running")
	// ErrMailboxFull is returned when a command is dropped because the
	// actor's mailbox has no room; commands are fire-and-forget, so this is
	// the caller's signal to back off rather than retry immediately.
	ErrMailboxFull = errors.New("handle: actor mailbox full")
	// ErrAskTimeout is returned by Snapshot when the actor does not answer
	// within the configured ask timeout.
	ErrAskTimeout = errors.New("handle: snapshot timed out")
	// ErrUnavailable is returned once the underlying Supervisor has
	// exhausted its restart budget: the engine is permanently down and no
	// further command will ever be delivered.
	ErrUnavailable = errors.New("handle: engine unavailable, restart budget exhausted")
)
