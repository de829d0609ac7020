package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Production writes sampled JSON
// from warn level up, anything else a coloured console log from debug up.
// A non-empty level overrides the environment default.
func NewLogger(env, level string) (*zap.Logger, error) {
	config := developmentConfig()
	if env == "production" {
		config = productionConfig()
	}

	if level != "" {
		atomic, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		config.Level = atomic
	}

	logger, err := config.Build(zap.Fields(zap.String("service", "tours-api")))
	if err != nil {
		return nil, err
	}

	logger.Info("Logger initialized",
		zap.String("environment", env),
		zap.Stringer("level", config.Level))

	return logger, nil
}

func productionConfig() zap.Config {
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.MessageKey = "message"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeDuration = zapcore.SecondsDurationEncoder

	return zap.Config{
		Level: zap.NewAtomicLevelAt(zap.WarnLevel),
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func developmentConfig() zap.Config {
	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.DebugLevel),
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
