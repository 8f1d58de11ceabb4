// Package logger provides the application's structured logging on top of
// zerolog. Level, format and destination come from the logging section of the
// configuration; a process-wide default instance backs code paths that run
// before wiring completes.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is a leveled structured logger.
type Logger struct {
	logger zerolog.Logger
}

var levelNames = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// New builds a logger from the configured level, format ("json" or
// "console") and output ("stdout" or a file path). Unknown levels fall back
// to info; an unwritable log file falls back to stdout rather than aborting.
func New(level, format, output string) *Logger {
	lvl, ok := levelNames[strings.ToLower(level)]
	if !ok {
		lvl = zerolog.InfoLevel
	}

	l := zerolog.New(destination(format, output)).
		Level(lvl).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger: l}
}

func destination(format, output string) io.Writer {
	var w io.Writer = os.Stdout
	if output != "" && output != "stdout" {
		file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err == nil {
			w = file
		}
	}

	if format == "console" {
		return zerolog.ConsoleWriter{Out: w}
	}
	return w
}

// Debug starts a debug-level event.
func (l *Logger) Debug() *zerolog.Event { return l.logger.Debug() }

// Info starts an info-level event.
func (l *Logger) Info() *zerolog.Event { return l.logger.Info() }

// Warn starts a warn-level event.
func (l *Logger) Warn() *zerolog.Event { return l.logger.Warn() }

// Error starts an error-level event.
func (l *Logger) Error() *zerolog.Event { return l.logger.Error() }

// Fatal starts a fatal-level event; the message call exits the process.
func (l *Logger) Fatal() *zerolog.Event { return l.logger.Fatal() }

// With derives a child logger context with additional fields.
func (l *Logger) With() zerolog.Context { return l.logger.With() }

// GetLogger exposes the underlying zerolog.Logger for integrations that
// need it directly (gorm log level selection, for one).
func (l *Logger) GetLogger() zerolog.Logger { return l.logger }

var (
	global     *Logger
	globalOnce sync.Once
)

// Init replaces the process-wide logger with one built from configuration.
// Called once at startup, before any Get.
func Init(level, format, output string) {
	global = New(level, format, output)
}

// Get returns the process-wide logger, creating a default json/stdout
// instance if Init has not run.
func Get() *Logger {
	globalOnce.Do(func() {
		if global == nil {
			global = New("info", "json", "stdout")
		}
	})
	return global
}
