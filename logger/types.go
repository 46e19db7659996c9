package logger

import "go.uber.org/zap"

// Logger defines the logging interface used throughout the application.
// Arguments after msg are alternating keys and values.
type Logger interface {
	DebugW(msg string, keysAndValues ...any)
	InfoW(msg string, keysAndValues ...any)
	WarnW(msg string, keysAndValues ...any)
	ErrorW(msg string, keysAndValues ...any)
	Sync() error
}

// NewNop creates a no-op logger that discards all output.
func NewNop() *DefaultLogger {
	return &DefaultLogger{logger: zap.NewNop().Sugar()}
}
