package logger

import (
	"io"
	"log/slog"
)

// New builds the process logger. Release mode logs JSON lines for log
// shippers, everything else gets the colored console format.
func New(w io.Writer, ginMode string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if ginMode == "release" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	if ginMode == "debug" {
		opts.Level = slog.LevelDebug
	}
	return slog.New(NewPrettyHandler(w, opts))
}
