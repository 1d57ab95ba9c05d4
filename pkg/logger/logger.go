// Package logger provides the process-wide structured logger.
//
// Readers log through the package-level helpers so library callers never
// have to thread a *zap.Logger through the format registry. Init is called
// once by the binary; library use without Init falls back to an info-level
// JSON logger on stderr.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and sinks of the global logger.
type Config struct {
	Level       string
	Development bool
	Encoding    string // "json" or "console"
	OutputPaths []string
}

var (
	mu     sync.Mutex
	global *zap.Logger
)

// Init builds the global logger. The first successful call wins; later
// calls are no-ops so tests and library init order stay harmless.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return nil
	}
	l, err := build(cfg)
	if err != nil {
		return err
	}
	global = l
	return nil
}

func build(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var enc zapcore.Encoder
	switch cfg.Encoding {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log encoding %q", cfg.Encoding)
	}

	paths := cfg.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}
	sink, _, err := zap.Open(paths...)
	if err != nil {
		return nil, fmt.Errorf("open log sinks: %w", err)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(zapcore.NewCore(enc, sink, level), opts...), nil
}

// Get returns the global logger, initializing a default one if needed.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		l, err := build(Config{Level: "info"})
		if err != nil {
			l = zap.NewNop()
		}
		global = l
	}
	return global
}

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) { Get().Info(msg, fields...) }

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) { Get().Warn(msg, fields...) }

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }

// Fatal logs at fatal level and exits the process.
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

// With returns a child of the global logger carrying extra fields.
func With(fields ...zap.Field) *zap.Logger { return Get().With(fields...) }

// Sync flushes buffered entries. Callers defer it at process exit; sync
// errors on stderr are expected on some platforms and safe to ignore.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		return nil
	}
	return global.Sync()
}

// reset drops the global logger so tests can re-init with their own config.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	global = nil
}
