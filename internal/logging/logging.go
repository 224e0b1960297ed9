package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

var (
	mu  sync.RWMutex
	log = newLogger("info", "console")
)

// Setup reconfigures the package logger. level is one of trace, debug,
// info, warn, error; format is console or json.
func Setup(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	log = newLogger(level, format)
}

// Disable turns off all logging.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(zerolog.Disabled)
}

func newLogger(level, format string) zerolog.Logger {
	var w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}
	if strings.EqualFold(format, "json") {
		return zerolog.New(os.Stdout).Level(parseLevel(level)).With().Timestamp().Logger()
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO", "":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs a debug message.
func Debug(v ...any) {
	l := current()
	l.Debug().Msg(fmt.Sprint(v...))
}

// Debugf logs a formatted debug message.
func Debugf(format string, v ...any) {
	l := current()
	l.Debug().Msgf(format, v...)
}

// Info logs an info message.
func Info(v ...any) {
	l := current()
	l.Info().Msg(fmt.Sprint(v...))
}

// Infof logs a formatted info message.
func Infof(format string, v ...any) {
	l := current()
	l.Info().Msgf(format, v...)
}

// Warn logs a warning message.
func Warn(v ...any) {
	l := current()
	l.Warn().Msg(fmt.Sprint(v...))
}

// Warnf logs a formatted warning message.
func Warnf(format string, v ...any) {
	l := current()
	l.Warn().Msgf(format, v...)
}

// Error logs an error message.
func Error(v ...any) {
	l := current()
	l.Error().Msg(fmt.Sprint(v...))
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...any) {
	l := current()
	l.Error().Msgf(format, v...)
}
