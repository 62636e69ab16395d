package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the JSON stdout logger as the slog default. Attributes
// attached to a context with WithAttrs are added to every record.
func Setup(level string) {
	slog.SetDefault(slog.New(NewContextHandler(NewStdoutHandler(level))))
}

func NewStdoutHandler(level string) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
