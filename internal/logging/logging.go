// Package logging provides context-based zap logger access, the same shape
// the rest of the pack uses to thread a *zap.Logger through a call chain
// without passing it as an explicit parameter everywhere.
package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying log.
func NewContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the logger stored in ctx, falling back to zap.L().
// windowactor.Actor and supervisor.Supervisor both call this from inside
// Run(ctx) when no Logger was set explicitly in their Config, so a caller
// that only ever threads a logger through context (never through a Config
// field) still gets one at the point each actually logs something.
func FromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.L()
}

// Component returns the context's logger scoped with a "component" field.
// windowactor.Actor.Run and supervisor.Supervisor.Run use it when no Logger
// is configured, to tell a crashed actor's log lines apart from its
// supervisor's; cmd/windowengine sets Logger explicitly on both, so its
// lines carry no component field.
func Component(ctx context.Context, name string) *zap.Logger {
	return FromContext(ctx).With(zap.String("component", name))
}

// New builds the engine's root logger: development (console, debug level)
// when verbose is set, production (JSON, info level) otherwise.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
