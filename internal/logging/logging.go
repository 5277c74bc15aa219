// Package logging builds the zap logger used across the module. Logs go
// to a rotated file only: the terminal UIs own stdout, and writing log
// lines there would corrupt the display.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON logger writing to path with rotation. An empty path
// disables logging entirely.
func New(path string) *zap.Logger {
	if path == "" {
		return zap.NewNop()
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)
	return zap.New(core)
}
