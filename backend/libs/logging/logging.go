package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const levelEnv = "LOG_LEVEL"

// NewLogger configures a JSON zap logger with level controlled by LOG_LEVEL.
// Unknown or empty levels fall back to info.
func NewLogger() (*zap.Logger, error) {
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(levelFromEnv()),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return cfg.Build()
}

func levelFromEnv() zapcore.Level {
	levelStr := strings.ToLower(strings.TrimSpace(os.Getenv(levelEnv)))
	var level zapcore.Level
	if err := level.Set(levelStr); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(t.UTC().Format(time.RFC3339Nano)) },
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// StdLogger adapts logger to the Println/Printf shape expected by libraries
// that take a stdlib-style logger, writing at the given level.
func StdLogger(logger *zap.Logger, level zapcore.Level) Printer {
	return Printer{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar(), level: level}
}

// Printer forwards Println/Printf calls to a sugared zap logger.
type Printer struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

func (p Printer) Println(v ...interface{}) {
	p.sugar.Logln(p.level, v...)
}

func (p Printer) Printf(format string, v ...interface{}) {
	p.sugar.Logf(p.level, strings.TrimRight(format, "\n"), v...)
}
