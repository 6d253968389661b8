package config

import (
	"io"
	"log/slog"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation defaults.
const (
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAgeDays = 28
)

// SetupLogger configures the global logger based on the configuration.
// Records go to the rotating log file when app.log_file is set, otherwise to fallback.
func SetupLogger(app AppConfig, fallback io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(app.LogLevel),
		AddSource: ParseLevel(app.LogLevel) == slog.LevelDebug, // Add source file/line in debug mode
	}

	handler := slog.NewJSONHandler(LogWriter(app, fallback), opts)
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}

// LogWriter returns the destination for log records.
func LogWriter(app AppConfig, fallback io.Writer) io.Writer {
	if app.LogFile == "" {
		if fallback == nil {
			return io.Discard
		}
		return fallback
	}

	maxSize := app.LogMaxSizeMB
	if maxSize <= 0 {
		maxSize = defaultLogMaxSizeMB
	}
	maxBackups := app.LogMaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultLogMaxBackups
	}
	maxAge := app.LogMaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultLogMaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   app.LogFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}
}

// ParseLevel maps a configured level name to a slog level. Unknown names map to info.
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
