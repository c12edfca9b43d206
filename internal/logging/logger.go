// Package logging provides centralized logging functionality for the application.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug for detailed troubleshooting information.
	LevelDebug LogLevel = "debug"
	// LevelInfo for general operational information.
	LevelInfo LogLevel = "info"
	// LevelWarn for potentially harmful situations.
	LevelWarn LogLevel = "warn"
	// LevelError for error events that might still allow the application to continue.
	LevelError LogLevel = "error"
)

var (
	// defaultLogger is the default logger instance.
	defaultLogger *slog.Logger

	// level is shared with the handler so verbosity can change at runtime.
	level = new(slog.LevelVar)

	// baseLevel is the level configured before any verbose override.
	baseLevel slog.Level
)

// init initializes the default logger.
func init() {
	// Get log level from environment variable, default to "info"
	logLevelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = string(LevelInfo)
	}

	// Logs go to stderr; stdout is reserved for rendered results.
	SetupLogger(os.Stderr, LogLevel(logLevelStr))
}

// SetupLogger configures the logger with the specified output and level.
func SetupLogger(w io.Writer, lvl LogLevel) {
	baseLevel = parseLevel(lvl)
	level.Set(baseLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(w, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

var levels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// parseLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
func parseLevel(lvl LogLevel) slog.Level {
	if l, ok := levels[LogLevel(strings.ToLower(string(lvl)))]; ok {
		return l
	}
	return slog.LevelInfo
}

// SetVerbose switches debug logging on, or back to the configured level.
func SetVerbose(on bool) {
	if on {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(baseLevel)
}

// Verbose reports whether debug logging is enabled.
func Verbose() bool {
	return level.Level() <= slog.LevelDebug
}

// Debug logs a message at debug level.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs a message at info level.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a message at warn level.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs a message at error level.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// With returns a logger that adds args to every record.
func With(args ...any) *slog.Logger {
	return defaultLogger.With(args...)
}

// MaskSensitive masks sensitive data for logging.
func MaskSensitive(value string) string {
	if value == "" {
		return "<not set>"
	}
	if len(value) <= 4 {
		return "<set>"
	}
	return value[:4] + "..." + strings.Repeat("*", 3)
}
