package storage

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

var migrationLog atomic.Pointer[zap.Logger]

// SetLogger routes migration output to l. Nil discards it.
func SetLogger(l *zap.Logger) {
	migrationLog.Store(l)
}

func currentLogger() *zap.Logger {
	if l := migrationLog.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// gooseLogger adapts zap to goose's Printf/Fatalf logger.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	currentLogger().Sugar().Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	currentLogger().Sugar().Fatalf(strings.TrimSuffix(format, "\n"), v...)
}
