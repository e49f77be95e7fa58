// Package logging builds the zap loggers shared by the binaries.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger or a colored development logger.
func New(production bool) (*zap.Logger, error) {
	if production {
		return zap.NewProduction()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// Must is like New but falls back to a no-op logger instead of failing.
func Must(production bool) *zap.Logger {
	logger, err := New(production)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
