// Package handle exposes the windowing engine as a small set of plain Go
// methods instead of raw actor commands: it owns a Supervisor's lifecycle,
// schedules periodic ticks, and turns the actor's ask-pattern snapshot into
// a bounded, context-aware call.
package handle

import (
	"context"
	"errors"
	"time"

	"github.com/arrowsignal/windowengine/internal/clock"
	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/signal"
	"github.com/arrowsignal/windowengine/pkg/supervisor"
	"github.com/arrowsignal/windowengine/pkg/windowactor"
)

// Config configures a Handle's lifecycle knobs. AskTimeout bounds Snapshot;
// TickInterval, if positive, drives a background goroutine delivering Tick
// on that cadence, starting only after InitialProcessingDelay has elapsed.
type Config struct {
	AskTimeout             time.Duration
	TickInterval           time.Duration
	InitialProcessingDelay time.Duration
	Clock                  clock.Clock
}

// Handle is the engine's public façade.
type Handle struct {
	sup                    *supervisor.Supervisor
	clock                  clock.Clock
	askTimeout             time.Duration
	tickInterval           time.Duration
	initialProcessingDelay time.Duration

	cancel context.CancelFunc
}

// New constructs a Handle around a not-yet-running Supervisor.
func New(sup *supervisor.Supervisor, cfg Config) *Handle {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	askTimeout := cfg.AskTimeout
	if askTimeout <= 0 {
		askTimeout = time.Second
	}
	return &Handle{
		sup:                    sup,
		clock:                  clk,
		askTimeout:             askTimeout,
		tickInterval:           cfg.TickInterval,
		initialProcessingDelay: cfg.InitialProcessingDelay,
	}
}

// Start launches the supervised actor, opens its first window, and, if
// TickInterval is positive, begins the periodic Tick goroutine. It blocks
// until the actor is live (bounded by AskTimeout) or ctx is cancelled.
func (h *Handle) Start(ctx context.Context, window signal.Window, replyTo listener.WindowEventListener) error {
	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	go func() { _ = h.sup.Run(runCtx) }()

	if h.tickInterval > 0 {
		go h.runTicker(runCtx)
	}

	a, err := h.waitForActor(ctx)
	if err != nil {
		return err
	}
	select {
	case a.Mailbox() <- windowactor.Start{Window: window, ReplyTo: replyTo}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessSignal delivers s to the actor. Fire-and-forget: a full mailbox or
// an absent actor (none installed yet) drops the signal rather than blocking.
func (h *Handle) ProcessSignal(s signal.HealthSignal) error {
	return h.send(windowactor.HealthSignal{Signal: s})
}

// Tick delivers a manual tick, the same message the background ticker
// sends on its own schedule.
func (h *Handle) Tick() error {
	return h.send(windowactor.Tick{})
}

// Flush clears the current window's data in place and pauses ingestion for
// the engine's configured resume delay.
func (h *Handle) Flush() error {
	return h.send(windowactor.Flush{})
}

// Pause pauses ingestion for d, after which the actor resumes on its own.
func (h *Handle) Pause(d time.Duration) error {
	return h.send(windowactor.Pause{Delay: d})
}

// CloseWindow closes the current window and advances to the next one.
func (h *Handle) CloseWindow() error {
	return h.send(windowactor.CloseCurrentWindow{})
}

// Stop asks the actor to end cleanly: it closes any open window, emits
// Stopped, and returns, which tells its Supervisor not to restart it.
func (h *Handle) Stop() error {
	return h.send(windowactor.Stop{})
}

// Snapshot answers with a copy of the current window's accumulated signals
// (nil if no window is open), bounded by the configured ask timeout.
func (h *Handle) Snapshot(ctx context.Context) (*signal.Snapshot, error) {
	if errors.Is(h.sup.Err(), supervisor.ErrExhausted) {
		return nil, ErrUnavailable
	}
	a := h.sup.Actor()
	if a == nil {
		return nil, ErrNotRunning
	}

	deadline := h.clock.After(h.askTimeout)
	reply := make(chan *signal.Snapshot, 1)
	select {
	case a.Mailbox() <- windowactor.GetSnapshot{Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		return nil, ErrAskTimeout
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-deadline:
		return nil, ErrAskTimeout
	}
}

// Terminate stops the actor and its supervisor permanently: no further
// restart will occur. It blocks until teardown completes or ctx expires.
func (h *Handle) Terminate(ctx context.Context) error {
	_ = h.Stop()
	if h.cancel != nil {
		h.cancel()
	}
	select {
	case <-h.sup.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) send(cmd windowactor.Command) error {
	if errors.Is(h.sup.Err(), supervisor.ErrExhausted) {
		return ErrUnavailable
	}
	a := h.sup.Actor()
	if a == nil {
		return ErrNotRunning
	}
	select {
	case a.Mailbox() <- cmd:
		return nil
	default:
		return ErrMailboxFull
	}
}

// runTicker waits out InitialProcessingDelay once and delivers the first Tick
// as soon as it elapses, then delivers Tick every TickInterval until ctx is
// cancelled. With no InitialProcessingDelay the first Tick comes one
// TickInterval after start.
func (h *Handle) runTicker(ctx context.Context) {
	if h.initialProcessingDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-h.clock.After(h.initialProcessingDelay):
		}
		_ = h.Tick()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.clock.After(h.tickInterval):
			_ = h.Tick()
		}
	}
}

// waitForActor blocks until the Supervisor has installed its first Actor.
// It waits on Supervisor.Updates() rather than polling the clock: actor
// start-up is real concurrency, not simulated time, so it must resolve
// even when the caller drives a Fake clock.
func (h *Handle) waitForActor(ctx context.Context) (*windowactor.Actor, error) {
	if a := h.sup.Actor(); a != nil {
		return a, nil
	}
	deadline := h.clock.After(h.askTimeout)
	for {
		select {
		case a := <-h.sup.Updates():
			if a != nil {
				return a, nil
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrNotRunning
		}
	}
}
