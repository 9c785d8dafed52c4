package util

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewLogger returns a JSON logger on stdout; unknown levels fall back to info.
func NewLogger(level string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(parseLevel(level))
}

// NewConsoleLogger writes human-readable lines to w, for interactive runs.
func NewConsoleLogger(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	return zerolog.New(cw).With().Timestamp().Logger().Level(parseLevel(level))
}

// LoggerFor picks the console or JSON logger from a format name.
func LoggerFor(format, level string) zerolog.Logger {
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		return NewConsoleLogger(level, os.Stderr)
	}
	return NewLogger(level)
}
