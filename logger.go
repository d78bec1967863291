package jsbridge

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger used when Options.Logger is nil.
// It is a no-op logger unless SetLogger was called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger configures the package logger. A nil l restores the no-op
// logger. Call it before creating bridges; bridges keep the logger they
// were created with.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
