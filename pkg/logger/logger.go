package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// Initialize sets up the global zerolog logger
func Initialize(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
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

func withFields(event *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	if len(fields) > 0 {
		for k, v := range fields[0] {
			event = event.Interface(k, v)
		}
	}
	return event
}

// Debug logs a debug message with optional structured fields
func Debug(msg string, fields ...map[string]interface{}) {
	withFields(log.Debug(), fields).Msg(msg)
}

// Info logs an info message with optional structured fields
func Info(msg string, fields ...map[string]interface{}) {
	withFields(log.Info(), fields).Msg(msg)
}

// Warn logs a warning message with optional structured fields
func Warn(msg string, fields ...map[string]interface{}) {
	withFields(log.Warn(), fields).Msg(msg)
}

// Error logs an error with optional structured fields
func Error(msg string, err error, fields ...map[string]interface{}) {
	withFields(log.Error().Err(err), fields).Msg(msg)
}

// Fatal logs an error and exits
func Fatal(msg string, err error, fields ...map[string]interface{}) {
	withFields(log.Fatal().Err(err), fields).Msg(msg)
}
