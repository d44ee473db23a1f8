package logging

import (
	"context"
	"log/slog"
)

// discardHandler is disabled for every level, so callers skip building
// attributes entirely.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

// NewNopLogger returns a logger that drops everything. GetLogger hands it out
// while output is discarded.
func NewNopLogger() Logger {
	return slog.New(discardHandler{})
}
