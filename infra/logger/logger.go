package logger

import corelogger "github.com/kilianp07/killchain/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards every message.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}
