package interpose

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var packageLogger atomic.Pointer[zap.Logger]

func init() {
	packageLogger.Store(newDefaultLogger())
}

// SetLogger replaces the package logger. Pass zap.NewNop() to silence the
// engine entirely; note that an unresolvable symbol still terminates the
// process.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	packageLogger.Store(l)
}

func logger() *zap.Logger {
	return packageLogger.Load()
}

// newDefaultLogger writes to stderr so the instrumented program's stdout
// stays untouched. A preload library must default to quiet: warn unless
// INTERPOSE_LOG says otherwise.
func newDefaultLogger() *zap.Logger {
	level := zapcore.WarnLevel
	if env := os.Getenv("INTERPOSE_LOG"); env != "" {
		if parsed, err := zapcore.ParseLevel(env); err == nil {
			level = parsed
		}
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core).Named("interpose")
}
