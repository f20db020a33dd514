package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON production logger, or a console logger when format
// is "console".
func NewLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("key: %s: %w", LogLevelEnv, err)
	}

	var zc zap.Config
	switch format {
	case "json", "":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("key: %s: unsupported format %q", LogFormatEnv, format)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
