// Package logging adapts a caller-supplied logr.Logger to the three
// verbosity levels the builder logs at: info for build milestones, debug for
// per-structure emission, trace for per-entity allocation.
package logging

import (
	"github.com/go-logr/logr"
)

// Verbosity levels, passed to logr's V(). A sink enables a level when its
// minimum verbosity is at least the level's value.
const (
	LEVEL_INFO  = 0
	LEVEL_DEBUG = 1
	LEVEL_TRACE = 2
)

// Logger wraps a logr.Logger so call sites read Debug/Trace instead of
// V(n).Info, keeping the logr surface out of the rest of the library.
type Logger struct {
	log logr.Logger
}

// NewLogger wraps the given logr.Logger. A logger with no sink (such as the
// zero value) is replaced with a discarding one, so the wrapper is always
// safe to call.
func NewLogger(log logr.Logger) *Logger {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Logger{log: log}
}

// WithName returns a Logger whose messages are attributed to the named
// component.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{log: l.log.WithName(name)}
}

// Info logs a build milestone.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

// Debug logs per-structure emission detail.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_DEBUG).Info(msg, keysAndValues...)
}

// Trace logs per-entity allocation detail.
func (l *Logger) Trace(msg string, keysAndValues ...interface{}) {
	l.log.V(LEVEL_TRACE).Info(msg, keysAndValues...)
}

// Error logs a failure with its underlying error.
func (l *Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
