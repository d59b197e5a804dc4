package logging

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// ParseLevel parses a level name case-insensitively, falling back to def
// for empty or unknown input.
func ParseLevel(s string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return def
	}
}

// LevelFromEnv reads a level from the named environment variable.
func LevelFromEnv(name string, def zapcore.Level) zapcore.Level {
	return ParseLevel(os.Getenv(name), def)
}
