package controller

import (
	"context"
	"log/slog"

	"github.com/calvinmclean/rangeguard"
)

// StatusSink receives every Status parsed from the device
type StatusSink interface {
	Record(ctx context.Context, status rangeguard.Status) error
}

// SinkFunc adapts a function to a StatusSink
type SinkFunc func(ctx context.Context, status rangeguard.Status) error

func (f SinkFunc) Record(ctx context.Context, status rangeguard.Status) error {
	return f(ctx, status)
}

// LogSink logs proximity changes at Info and every Status at Debug
type LogSink struct {
	logger  *slog.Logger
	last    rangeguard.ProximityState
	started bool
}

var _ StatusSink = &LogSink{}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Record implements StatusSink.
func (s *LogSink) Record(ctx context.Context, status rangeguard.Status) error {
	s.logger.DebugContext(ctx, "status", "line", status.String())

	if !s.started || status.State != s.last {
		s.logger.InfoContext(ctx, "proximity changed", "state", status.State.String(), "angle", status.Command.Angle())
	}
	s.started = true
	s.last = status.State

	return nil
}
