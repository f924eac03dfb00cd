// Package logger provides the process-wide structured logger. The
// default writes console output on stdout and is silenced under go
// test.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger()

	if strings.HasSuffix(os.Args[0], ".test") {
		logger = zerolog.Nop()
	}
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	return logger
}

// Set overrides the global logger.
func Set(l zerolog.Logger) {
	logger = l
}

// SetOutput changes the output of the global logger.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// SetLevel parses a level name and applies it to the global logger;
// unknown names leave the level unchanged.
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil {
		logger = logger.Level(lvl)
	}
}

// Disable silences the global logger.
func Disable() {
	logger = zerolog.Nop()
}
