// Package notification routes controller notices to logs and frontends.
package notification

import (
	"context"
	"log/slog"

	"github.com/cinedesk/cinedesk/internal/core"
)

// Compile-time interface checks.
var (
	_ core.Notifier = (*Log)(nil)
	_ core.Notifier = Func(nil)
	_ core.Notifier = Multi(nil)
)

// Log writes every notice to a structured logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify implements core.Notifier.
func (l *Log) Notify(ctx context.Context, n core.Notice) {
	attrs := []slog.Attr{
		slog.String("source", n.Source),
		slog.String("text", n.Text),
	}
	if n.Err != nil {
		attrs = append(attrs, slog.String("error", n.Err.Error()))
	}

	level := slog.LevelInfo
	if n.Level == core.LevelError {
		level = slog.LevelError
	}
	l.logger.LogAttrs(ctx, level, "notice", attrs...)
}

// Func adapts a function to core.Notifier.
type Func func(ctx context.Context, n core.Notice)

// Notify implements core.Notifier.
func (f Func) Notify(ctx context.Context, n core.Notice) {
	if f != nil {
		f(ctx, n)
	}
}

// Multi forwards each notice to every notifier in order.
type Multi []core.Notifier

// Notify implements core.Notifier.
func (m Multi) Notify(ctx context.Context, n core.Notice) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Filter forwards only notices accepted by keep.
func Filter(next core.Notifier, keep func(core.Notice) bool) core.Notifier {
	return Func(func(ctx context.Context, n core.Notice) {
		if keep(n) {
			next.Notify(ctx, n)
		}
	})
}
