package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// ToContext stores a logger in the context.
func ToContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext retrieves the logger from context, falling back to the
// default logger so callers never get nil.
func FromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// With adds attributes to the context logger and returns both the
// enriched logger and the updated context:
//
//	log, ctx := logger.With(ctx, "company_id", companyID)
func With(ctx context.Context, args ...any) (*slog.Logger, context.Context) {
	log := FromContext(ctx).With(args...)
	return log, ToContext(ctx, log)
}
