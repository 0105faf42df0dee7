package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New instantiates a production JSON logger at the requested level ("debug", "info", ...).
// An empty level means info.
func New(level string) (*zap.Logger, error) {
	return build(level)
}

// NewFile builds a logger writing JSON lines to path instead of stderr. The terminal
// station uses it so log output does not tear the UI.
func NewFile(level, path string) (*zap.Logger, error) {
	return build(level, path)
}

// build writes to stderr unless output paths are given.
func build(level string, outputs ...string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputs) > 0 {
		cfg.OutputPaths = outputs
		cfg.ErrorOutputPaths = outputs
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	return cfg.Build()
}

// Must is a helper that panics when the logger cannot be created.
func Must(logger *zap.Logger, err error) *zap.Logger {
	if err != nil {
		panic(err)
	}
	return logger
}
