package util

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewZapLogger() *zap.SugaredLogger {
	// stderr, не stdout: stdout занят выводом команд CLI.
	sink := zapcore.AddSync(os.Stderr)
	level := zap.NewAtomicLevelAt(logLevelFromEnv())

	developmentCfg := zap.NewDevelopmentEncoderConfig()
	developmentCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(developmentCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, sink, level),
	)

	return zap.New(core).Sugar()
}

func logLevelFromEnv() zapcore.Level {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var l zapcore.Level
		if err := l.Set(v); err == nil {
			return l
		}
	}
	return zap.InfoLevel
}
