package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestSimpleLogSinkDefaults(t *testing.T) {
	t.Run("nil writer falls back to stdout", func(t *testing.T) {
		s := NewSimpleLogSink(nil, LEVEL_DEBUG, false)
		require.Equal(t, os.Stdout, s.writer)
	})

	t.Run("enabled honours the minimum verbosity", func(t *testing.T) {
		s := NewSimpleLogSink(&bytes.Buffer{}, LEVEL_DEBUG, false)
		require.True(t, s.Enabled(LEVEL_INFO))
		require.True(t, s.Enabled(LEVEL_DEBUG))
		require.False(t, s.Enabled(LEVEL_TRACE))
	})

	t.Run("init records the call depth", func(t *testing.T) {
		s := NewSimpleLogSink(&bytes.Buffer{}, LEVEL_DEBUG, false)
		s.Init(logr.RuntimeInfo{CallDepth: 5})
		require.Equal(t, 5, s.callDepth)
	})
}

func TestSimpleLogSinkOutput(t *testing.T) {
	t.Run("info messages carry label and key-values", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.Info(LEVEL_INFO, "Hello world", "key", "value")

		output := buf.String()
		require.Contains(t, output, "[INFO]")
		require.Contains(t, output, "Hello world")
		require.Contains(t, output, "key: value")
	})

	t.Run("levels above the minimum are dropped", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_INFO, false)
		s.Info(LEVEL_DEBUG, "This should not be logged", "foo", "bar")
		require.Zero(t, buf.Len())
	})

	t.Run("errors append the error key-value", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_INFO, false)
		s.Error(errors.New("sample error"), "An error occurred", "context", "testing")

		output := buf.String()
		require.Contains(t, output, "[ERROR]")
		require.Contains(t, output, "An error occurred")
		require.Contains(t, output, "context: testing")
		require.Contains(t, output, "error: sample error")
	})

	t.Run("non-string keys are replaced with a positional key", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.Info(LEVEL_INFO, "Non-string key", 123, "value")
		require.Contains(t, buf.String(), "key0: value")
	})

	t.Run("disabled color writes no escape sequences", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.Info(LEVEL_INFO, "plain")
		require.NotContains(t, buf.String(), "\x1b[")
	})
}

func TestSimpleLogSinkDerivation(t *testing.T) {
	t.Run("WithName prefixes messages", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.WithName("builder").Info(LEVEL_INFO, "Test message")
		require.Contains(t, buf.String(), "[builder]")
	})

	t.Run("chained WithName joins the names", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		chain := s.WithName("A").WithName("B")
		chain.Info(LEVEL_INFO, "Chained name")
		require.Contains(t, buf.String(), "[A.B]")
	})

	t.Run("V keeps the sink's configuration", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.V(LEVEL_DEBUG).Info(LEVEL_DEBUG, "Verbose log")
		require.Contains(t, buf.String(), "[DEBUG]")
	})

	t.Run("derived sinks keep the color setting", func(t *testing.T) {
		buf := &bytes.Buffer{}
		s := NewSimpleLogSink(buf, LEVEL_DEBUG, false)
		s.WithName("noisy").WithValues("k", "v").(*SimpleLogSink).Info(LEVEL_INFO, "still plain")
		require.NotContains(t, buf.String(), "\x1b[")
	})
}

func TestNewSimpleLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewSimpleLogger(buf, LEVEL_DEBUG, false)
	logger.Info("Logger info", "testKey", "testValue")
	require.Contains(t, buf.String(), "Logger info")
	require.Contains(t, buf.String(), "testKey: testValue")
}

func TestLoggerWrapper(t *testing.T) {
	t.Run("no-sink loggers are replaced with a discard", func(t *testing.T) {
		l := NewLogger(logr.Logger{})
		// Safe to call; nothing to assert beyond not panicking.
		l.Info("into the void")
		l.Debug("still nothing")
	})

	t.Run("levels route to the sink's verbosity", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewLogger(NewSimpleLogger(buf, LEVEL_TRACE, false))
		l.Info("milestone")
		l.Debug("structure")
		l.Trace("entity")
		l.Error(errors.New("boom"), "failure")

		output := buf.String()
		require.Contains(t, output, "[INFO] milestone")
		require.Contains(t, output, "[DEBUG] structure")
		require.Contains(t, output, "[TRACE] entity")
		require.Contains(t, output, "[ERROR] failure")
	})

	t.Run("WithName attributes messages to the component", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewLogger(NewSimpleLogger(buf, LEVEL_INFO, false)).WithName("builder")
		l.Info("image complete")
		require.Contains(t, buf.String(), "[builder]")
	})
}
