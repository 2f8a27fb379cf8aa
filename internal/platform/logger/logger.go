package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger. Handlers and middleware log through
// slog so request IDs travel with every line.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
