// Package supervisor restarts a crashed WindowActor with exponential
// backoff, the same restart-counter-plus-ceiling shape as the kernel
// thread supervisor in the wider pack, adapted to a single supervised
// actor instead of a hierarchy of named children.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arrowsignal/windowengine/internal/clock"
	"github.com/arrowsignal/windowengine/internal/logging"
	"github.com/arrowsignal/windowengine/pkg/windowactor"
)

// ErrExhausted is returned, and logged as SupervisorExhausted, once the
// supervised actor crashes again after MaxRetries restarts (MaxRetries+1
// crashes in all) without a clean stop.
var ErrExhausted = errors.New("supervisor: restart attempts exhausted")

// Factory builds a fresh Actor for each supervised run. A restart always
// discards the previous actor's in-flight window and stash: nothing
// actor-local survives a crash.
type Factory func() *windowactor.Actor

// Config configures a Supervisor's restart policy.
type Config struct {
	MinBackoff   time.Duration
	MaxBackoff   time.Duration
	RandomFactor float64
	MaxRetries   int
	Clock        clock.Clock
	Logger       *zap.Logger
}

// Supervisor restarts a WindowActor with exponential backoff until it runs
// to a clean stop or MaxRetries is exceeded.
type Supervisor struct {
	factory Factory
	cfg     Config
	backoff Backoff

	mu      sync.RWMutex
	actor   *windowactor.Actor
	err     error
	actorCh chan *windowactor.Actor

	done chan struct{}
}

// New constructs a Supervisor. Call Run to start supervising; it blocks
// until the actor stops cleanly, ctx is cancelled, or the restart budget is
// exhausted.
func New(factory Factory, cfg Config) *Supervisor {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	return &Supervisor{
		factory: factory,
		cfg:     cfg,
		backoff: Backoff{Min: cfg.MinBackoff, Max: cfg.MaxBackoff, RandomFactor: cfg.RandomFactor},
		actorCh: make(chan *windowactor.Actor, 1),
		done:    make(chan struct{}),
	}
}

// Actor returns the most recently installed Actor, or nil before Run has
// installed the first one. A crashed actor stays installed until its
// replacement is built, and after exhaustion the last crashed actor remains.
func (s *Supervisor) Actor() *windowactor.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor
}

// Updates delivers the latest Actor every time Run installs one, so a
// caller can wait for the actor to become live without polling a clock.
// Only the most recent value is buffered; a slow reader sees the latest
// actor, not every intermediate one.
func (s *Supervisor) Updates() <-chan *windowactor.Actor { return s.actorCh }

func (s *Supervisor) setActor(a *windowactor.Actor) {
	s.mu.Lock()
	s.actor = a
	s.mu.Unlock()

	select {
	case s.actorCh <- a:
	default:
		select {
		case <-s.actorCh:
		default:
		}
		select {
		case s.actorCh <- a:
		default:
		}
	}
}

// Done closes once Run has returned.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Err reports why Run stopped: nil for a clean shutdown, or an error
// wrapping ErrExhausted once the restart budget ran out.
func (s *Supervisor) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Run supervises actor instances from factory until ctx is cancelled, an
// actor stops cleanly (its Run returns nil), or the restart budget is
// exhausted.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.done)
	if s.cfg.Logger == nil {
		s.cfg.Logger = logging.Component(ctx, "supervisor")
	}

	for {
		actor := s.factory()
		s.setActor(actor)

		runErr := actor.Run(ctx)

		if ctx.Err() != nil || runErr == nil {
			s.setErr(nil)
			return nil
		}

		s.cfg.Logger.Warn("window actor crashed",
			zap.Error(runErr),
			zap.Int("attempt", s.backoff.Attempts()+1),
		)

		if s.backoff.Attempts() >= s.cfg.MaxRetries {
			final := fmt.Errorf("%w: %v", ErrExhausted, runErr)
			s.cfg.Logger.Error("supervisor exhausted restart budget", zap.Error(final))
			s.setErr(final)
			return final
		}

		delay := s.backoff.Next()
		select {
		case <-ctx.Done():
			s.setErr(nil)
			return nil
		case <-s.cfg.Clock.After(delay):
		}
	}
}

func (s *Supervisor) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
