// Package bus republishes the windowing engine's synthesized side-effect
// signals. Publishing is fire-and-forget: a failure to deliver is logged by
// the caller, never surfaced as an engine error.
package bus

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arrowsignal/windowengine/pkg/signal"
)

// SignalBus publishes synthesized signals. Publish must never block the
// caller on a slow or absent subscriber.
type SignalBus interface {
	Publish(s signal.HealthSignal) error
}

// Subscriber receives every signal a ChannelBus publishes.
type Subscriber func(signal.HealthSignal)

// ErrBusFull is returned by ChannelBus.Publish when the internal queue has
// no room; the caller logs it as a BusPublishFailed and drops the signal.
var ErrBusFull = errFull{}

type errFull struct{}

func (errFull) Error() string { return "signal bus: queue full" }

// ChannelBus is an in-process, best-effort bus backed by a buffered channel
// and a background fan-out goroutine. Its worker pool is built the same way
// the stream kernel's Parallel fans work across goroutines: an errgroup
// tied to a cancellable context, torn down on Close.
type ChannelBus struct {
	queue   chan signal.HealthSignal
	cancel  context.CancelFunc
	group   *errgroup.Group
	mu      sync.RWMutex
	subs    []Subscriber
	closeCh chan struct{}
	once    sync.Once
}

// NewChannelBus creates a ChannelBus with the given queue depth and number
// of fan-out workers delivering to subscribers concurrently.
func NewChannelBus(queueDepth, workers int) *ChannelBus {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	b := &ChannelBus{
		queue:   make(chan signal.HealthSignal, queueDepth),
		cancel:  cancel,
		group:   g,
		closeCh: make(chan struct{}),
	}

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case s, ok := <-b.queue:
					if !ok {
						return nil
					}
					b.deliver(s)
				}
			}
		})
	}

	return b
}

// Subscribe registers a callback invoked for every published signal. Not
// safe to call concurrently with Publish on the same bus without the lock
// ChannelBus already takes internally — callers just call Subscribe.
func (b *ChannelBus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
}

func (b *ChannelBus) deliver(s signal.HealthSignal) {
	b.mu.RLock()
	subs := append([]Subscriber{}, b.subs...)
	b.mu.RUnlock()
	for _, sub := range subs {
		sub(s)
	}
}

// Publish enqueues s for delivery. It never blocks: a full queue returns
// ErrBusFull immediately instead of waiting for room.
func (b *ChannelBus) Publish(s signal.HealthSignal) error {
	select {
	case b.queue <- s:
		return nil
	default:
		return ErrBusFull
	}
}

// Close stops the fan-out workers and releases resources. Already-queued
// signals that haven't been delivered yet are dropped.
func (b *ChannelBus) Close() {
	b.once.Do(func() {
		b.cancel()
		close(b.queue)
		_ = b.group.Wait()
		close(b.closeCh)
	})
}

// Noop discards every published signal; useful in tests that don't care
// about side effects, and as a safe zero-configuration default.
type Noop struct{}

// Publish implements SignalBus by discarding s.
func (Noop) Publish(signal.HealthSignal) error { return nil }

// Logging wraps a zap logger and logs every publish failure as
// BusPublishFailed, per the engine's error-handling policy: local failures
// are logged and dropped, never escalated.
type Logging struct {
	Inner  SignalBus
	Logger *zap.Logger
}

// Publish implements SignalBus, logging (and swallowing) any failure from
// the inner bus.
func (l Logging) Publish(s signal.HealthSignal) error {
	if err := l.Inner.Publish(s); err != nil {
		l.Logger.Warn("bus publish failed",
			zap.String("signal", s.Name),
			zap.Error(err),
		)
		return nil
	}
	return nil
}
