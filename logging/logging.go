// Package logging builds the structured zap logger used across the
// service: JSON to a rotated file, human-readable console output in
// development, and redaction of credentials before they reach either sink.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the file sink.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// Config controls logger construction. Zero values fall back to the
// defaults above.
type Config struct {
	// Level is the minimum level for both sinks.
	Level zapcore.Level

	// FilePath is the log file location. Empty disables the file sink.
	FilePath string

	// Development switches the console sink to a colored, human-readable
	// format and enables debug level unless Level is set higher.
	Development bool

	// MaxSizeMB, MaxBackups, and MaxAgeDays configure file rotation.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds the application logger. The file sink always encodes JSON;
// the console sink follows the Development flag.
func New(cfg Config) (*zap.Logger, error) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}

	cores := []zapcore.Core{consoleCore(cfg)}
	if cfg.FilePath != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			fileWriter,
			cfg.Level,
		))
	}

	logger := zap.New(
		newRedactingCore(zapcore.NewTee(cores...)),
		zap.AddCaller(),
	)
	return logger, nil
}

// NewWithWriter builds a logger against a caller-supplied sink. Used in
// tests to capture output.
func NewWithWriter(cfg Config, w zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), w, cfg.Level)
	return zap.New(newRedactingCore(core))
}

func consoleCore(cfg Config) zapcore.Core {
	var enc zapcore.Encoder
	if cfg.Development {
		enc = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	} else {
		enc = zapcore.NewJSONEncoder(fileEncoderConfig())
	}
	return zapcore.NewCore(enc, zapcore.Lock(os.Stdout), cfg.Level)
}

func fileEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "source",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := fileEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("15:04:05.000"))
	}
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

// Sync flushes a logger. Stdout sync errors are expected on some
// platforms and ignored.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}
