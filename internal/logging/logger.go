package logging

import (
	"fmt"
	"strings"

	"github.com/vcscsvcscs/symptom-checker/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. Production uses the JSON production
// preset, everything else the development preset. The configured format and
// level override the preset.
func New(environment string, cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	switch strings.ToLower(environment) {
	case "prod", "production":
		zapConfig = zap.NewProductionConfig()
	default:
		zapConfig = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	switch cfg.Format {
	case "json":
		zapConfig.Encoding = "json"
		zapConfig.EncoderConfig = zap.NewProductionEncoderConfig()
	case "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// KeyPresence describes a secret without revealing it
func KeyPresence(key string) string {
	if strings.TrimSpace(key) == "" {
		return "missing"
	}
	return "present"
}
