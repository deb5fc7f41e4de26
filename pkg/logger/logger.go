package logger

import (
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

// Init builds the process-wide logger. Production uses JSON with ISO8601 timestamps,
// everything else gets the colored development console encoder.
func Init(environment, level, format string) *zap.Logger {
	once.Do(func() {
		var config zap.Config

		if strings.EqualFold(environment, "production") {
			config = zap.NewProductionConfig()
			config.EncoderConfig.TimeKey = "timestamp"
			config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			config.DisableStacktrace = true
		} else {
			config = zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		config.Level = zap.NewAtomicLevelAt(ParseLevel(level))

		switch format {
		case "json":
			config.Encoding = "json"
		case "console":
			config.Encoding = "console"
		}

		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}

		l, err := config.Build(zap.AddCaller())
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		globalLogger.Store(l)
		zap.ReplaceGlobals(l)
	})

	return globalLogger.Load()
}

// Get returns the global logger, falling back to a production logger when Init was never called.
func Get() *zap.Logger {
	if l := globalLogger.Load(); l != nil {
		return l
	}
	return Init("production", "info", "json")
}

// Sync flushes any buffered log entries.
func Sync() {
	if l := globalLogger.Load(); l != nil {
		_ = l.Sync()
	}
}

// ParseLevel maps a textual level to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
