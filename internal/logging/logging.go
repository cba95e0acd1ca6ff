package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/josh-kwaku/settlement-ledger/internal/auth"
)

type ctxKey struct{}

func Init(service, level, appEnv string) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if appEnv == "development" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

// FromContext returns the logger stored in ctx, or the default one, tagged
// with the operator acting on the ledger when ctx names one.
func FromContext(ctx context.Context) *slog.Logger {
	l := stored(ctx)
	if actor, ok := auth.ActorFromContext(ctx); ok {
		return l.With("actor", actor)
	}
	return l
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With attaches args to every later log line written through ctx.
func With(ctx context.Context, args ...any) context.Context {
	return WithLogger(ctx, stored(ctx).With(args...))
}

func stored(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Component returns the default logger tagged for a long-running worker.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
