// Package obslog wraps zerolog with the environment-aware setup the CLI
// uses; the signing core does not log.
package obslog

// SPDX-License-Identifier: MIT
// Grounded on jhoicas-Inventario-api's pkg/logger/logger.go: same
// Config{Env,Level}/New/parseLevel shape, console writer in development and
// JSON in production.

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the logger's output shape and verbosity.
type Config struct {
	Env   string // "development" -> console writer, otherwise JSON
	Level string // trace, debug, info, warn, error
}

// Logger wraps zerolog.Logger for consistent construction across the
// module's entrypoints.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger per cfg and sets it as zerolog's package-level
// default so libraries using the global logger pick it up too.
func New(cfg Config) *Logger {
	var w io.Writer = os.Stdout
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zl := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// With starts a sub-logger with fixed fields, e.g. the invoice UUID being
// processed.
func (l *Logger) With() zerolog.Context { return l.zl.With() }
