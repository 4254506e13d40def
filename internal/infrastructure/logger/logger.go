// Package logger configures the process-wide zerolog instance.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// globalLogger carries console defaults at info level until New
// reconfigures it during boot.
var globalLogger = zerolog.New(consoleWriter()).With().Timestamp().Logger().Level(zerolog.InfoLevel)

// New builds the process logger from the configured level and format
// ("console" or "json") and installs it as the global instance.
func New(level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, err
	}

	var out io.Writer
	switch strings.ToLower(format) {
	case "json":
		out = os.Stdout
	case "console":
		out = consoleWriter()
	default:
		return zerolog.Logger{}, fmt.Errorf("unsupported log format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	globalLogger = zerolog.New(out).With().Timestamp().Logger().Level(lvl)
	return globalLogger, nil
}

// GetLogger returns the global logger instance.
func GetLogger() zerolog.Logger {
	return globalLogger
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
}
