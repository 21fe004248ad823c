package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 创建控制台日志，verbose 时输出 debug 级别
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.TimeKey = ""
	if !verbose {
		config.EncoderConfig.CallerKey = ""
	}
	return config.Build()
}

// Must 与 New 相同，失败时退回到 zap.NewNop
func Must(verbose bool) *zap.Logger {
	logger, err := New(verbose)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
