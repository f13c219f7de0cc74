// Package log configures the service's JSON logger and provides typed
// attribute helpers for the engine's identifiers.
package log

import (
	"log/slog"
	"os"

	app "github.com/convoflow/engine"
)

// New constructs the Convoflow JSON logger at info level. Service name and
// version are stamped on every record
func New(env string) *slog.Logger {
	return NewWithLevel(env, slog.LevelInfo)
}

// NewWithLevel constructs the Convoflow JSON logger at the provided level
func NewWithLevel(env string, lvl slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler).With(
		slog.String("service", app.Name),
		slog.String("env", env),
		slog.String("version", app.Version))
}
