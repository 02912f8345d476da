// Command windowengine runs a single health-signal window actor: it
// tumbles windows on a fixed frequency, accumulating HealthSignals and
// republishing any synthesized side-effect signals on its in-process bus.
//
// Usage:
//
//	windowengine --config engine.yaml
package main

import (
	"context"
	"flag"
	"log"
	ossignal "os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/arrowsignal/windowengine/internal/clock"
	"github.com/arrowsignal/windowengine/internal/logging"
	"github.com/arrowsignal/windowengine/pkg/advance"
	"github.com/arrowsignal/windowengine/pkg/bus"
	"github.com/arrowsignal/windowengine/pkg/engineconfig"
	"github.com/arrowsignal/windowengine/pkg/handle"
	"github.com/arrowsignal/windowengine/pkg/listener"
	"github.com/arrowsignal/windowengine/pkg/matcher"
	"github.com/arrowsignal/windowengine/pkg/signal"
	"github.com/arrowsignal/windowengine/pkg/supervisor"
	"github.com/arrowsignal/windowengine/pkg/windowactor"
)

// buildMatcher turns the config-file Matcher block into a PatternMatcher. A
// zero Threshold means the operator hasn't opted into matching; the actor
// runs matcherless rather than firing on an unconfigured signal name.
func buildMatcher(cfg engineconfig.Matcher) matcher.PatternMatcher {
	if cfg.Threshold <= 0 {
		return nil
	}
	return matcher.ThresholdMatcher{
		Name:      cfg.Name,
		Predicate: func(s signal.HealthSignal) bool { return s.Name == cfg.SignalName },
		Threshold: cfg.Threshold,
	}
}

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml (required)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if *cfgPath == "" {
		log.Fatal("windowengine: --config flag is required")
	}

	l, err := logging.New(*verbose)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	zap.ReplaceGlobals(l)
	defer l.Sync() //nolint:errcheck

	cfg, err := engineconfig.Load(*cfgPath)
	if err != nil {
		l.Fatal("load config", zap.Error(err))
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx = logging.NewContext(ctx, l)

	realClock := clock.Real{}
	signalBus := bus.Logging{Inner: bus.NewChannelBus(256, 4), Logger: l}

	windowMatcher := buildMatcher(cfg.Matcher)
	if windowMatcher == nil {
		l.Warn("no matcher configured; windows will close without synthesizing side-effect signals")
	}

	factory := func() *windowactor.Actor {
		return windowactor.New(windowactor.Config{
			Advancer:     advance.TumblingAdvancer{Clock: realClock},
			Matcher:      windowMatcher,
			Bus:          signalBus,
			Clock:        realClock,
			Logger:       l,
			ResumeDelay:  cfg.ResumeProcessingDelay,
			MailboxDepth: 64,
		})
	}

	sup := supervisor.New(factory, supervisor.Config{
		MinBackoff:   cfg.Backoff.MinBackoff,
		MaxBackoff:   cfg.Backoff.MaxBackoff,
		RandomFactor: cfg.Backoff.RandomFactor,
		MaxRetries:   cfg.Backoff.MaxRetries,
		Clock:        realClock,
		Logger:       l,
	})

	h := handle.New(sup, handle.Config{
		AskTimeout:             cfg.Ask.Timeout,
		TickInterval:           cfg.TickInterval,
		InitialProcessingDelay: cfg.InitialProcessingDelay,
		Clock:                  realClock,
	})

	events := listener.NewChannel(256)
	go logEvents(l, events)

	window := signal.For(realClock.Now(), cfg.Frequency)
	if err := h.Start(ctx, window, events); err != nil {
		l.Fatal("start engine", zap.Error(err))
	}
	l.Info("engine started", zap.Duration("frequency", cfg.Frequency))

	<-ctx.Done()
	l.Info("shutting down")

	termCtx, termCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer termCancel()
	if err := h.Terminate(termCtx); err != nil {
		l.Warn("terminate", zap.Error(err))
	}
}

func logEvents(l *zap.Logger, events *listener.Channel) {
	for e := range events.Events {
		l.Debug("window event", zap.Int("kind", int(e.Kind)))
	}
}
