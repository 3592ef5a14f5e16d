package logger

import (
	"legal-rag-chatbot/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process logger. It is a no-op until InitLogger runs so that
// packages can log from tests without setup.
var Logger = zap.NewNop()

// InitLogger initializes structured logging based on configuration
func InitLogger(cfg *config.Config) error {
	var zcfg zap.Config
	if cfg.GinMode == "release" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := zcfg.Build()
	if err != nil {
		return err
	}
	Logger = l
	Logger.Debug("structured logging initialized", zap.String("level", zcfg.Level.String()))
	return nil
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	_ = Logger.Sync()
}

// Helper functions for common log operations
func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}
