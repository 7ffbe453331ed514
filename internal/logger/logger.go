// Package logger builds the process logger: a zap core exposed through the
// logr interface, which is what every other package accepts.
package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	TimeStampKey = "timestamp"
	MessageKey   = "message"
	ComponentKey = "component"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

var (
	mu         sync.Mutex
	global     *zap.Logger
	globalLogr = logr.Discard()
)

// Setup builds the global logger. level is a zap level name ("debug",
// "info", "warn", "error"); logr V(1) messages appear at debug. format is
// FormatJSON or FormatConsole. Calling Setup again replaces the logger.
func Setup(level, format string) (logr.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return logr.Discard(), fmt.Errorf("log level: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	var encoder zapcore.Encoder
	switch format {
	case FormatJSON, "":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case FormatConsole:
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return logr.Discard(), fmt.Errorf("log format must be %q or %q, got %q", FormatJSON, FormatConsole, format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(lvl))
	zl := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))

	mu.Lock()
	defer mu.Unlock()
	global = zl
	globalLogr = zapr.NewLogger(zl)
	return globalLogr, nil
}

// Global returns the logger built by Setup, or a discarding logger.
func Global() logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogr
}

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l logr.Logger) context.Context {
	return logr.NewContext(ctx, l)
}

// FromContext returns the logger attached to ctx, falling back to Global.
func FromContext(ctx context.Context) logr.Logger {
	if l, err := logr.FromContext(ctx); err == nil {
		return l
	}
	return Global()
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	mu.Lock()
	zl := global
	mu.Unlock()
	if zl == nil {
		return
	}
	if err := zl.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

// isIgnorableSyncError reports the errors stderr returns when it is a pipe
// or terminal.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}
