package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Run("should map known level names", func(t *testing.T) {
		assert.Equal(t, LevelDebug, parseLevel("debug"))
		assert.Equal(t, LevelInfo, parseLevel("info"))
		assert.Equal(t, LevelWarn, parseLevel("warn"))
		assert.Equal(t, LevelWarn, parseLevel("warning"))
		assert.Equal(t, LevelError, parseLevel("error"))
	})

	t.Run("should default unknown names to info", func(t *testing.T) {
		assert.Equal(t, LevelInfo, parseLevel("verbose"))
		assert.Equal(t, LevelInfo, parseLevel(""))
	})
}

func TestLoggerLevels(t *testing.T) {
	t.Run("should suppress messages below the configured level", func(t *testing.T) {
		l, err := New(LevelWarn, "", false)
		require.NoError(t, err)

		var buf bytes.Buffer
		l.SetOutput(&buf)

		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		l.Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "[WARN] warn message")
		assert.Contains(t, out, "[ERROR] error message")
	})

	t.Run("should format arguments", func(t *testing.T) {
		l, err := New(LevelDebug, "", false)
		require.NoError(t, err)

		var buf bytes.Buffer
		l.SetOutput(&buf)

		l.Info("listening on %s with %d routes", ":8080", 5)
		assert.Contains(t, buf.String(), "listening on :8080 with 5 routes")
	})
}

func TestLoggerFile(t *testing.T) {
	t.Run("should create the log file and its directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "bridge.log")
		l, err := New(LevelInfo, path, false)
		require.NoError(t, err)

		l.Info("wrote to file")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "wrote to file")
	})

	t.Run("should truncate the file unless persist is set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.log")

		l, err := New(LevelInfo, path, false)
		require.NoError(t, err)
		l.Info("first run")
		require.NoError(t, l.Close())

		l, err = New(LevelInfo, path, false)
		require.NoError(t, err)
		l.Info("second run")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "first run")
		assert.Contains(t, string(data), "second run")
	})

	t.Run("should append across runs when persist is set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.log")

		l, err := New(LevelInfo, path, true)
		require.NoError(t, err)
		l.Info("first run")
		require.NoError(t, l.Close())

		l, err = New(LevelInfo, path, true)
		require.NoError(t, err)
		l.Info("second run")
		require.NoError(t, l.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "first run")
		assert.Contains(t, string(data), "second run")
	})
}

func TestPackageLevelFunctions(t *testing.T) {
	t.Run("should be safe before Init", func(t *testing.T) {
		prev := defaultLogger
		defaultLogger = nil
		defer func() { defaultLogger = prev }()

		assert.NotPanics(t, func() {
			Debug("no-op")
			Info("no-op")
			Warn("no-op")
			Error("no-op")
		})
		assert.NoError(t, Close())
	})

	t.Run("should route through the default logger after Init", func(t *testing.T) {
		prev := defaultLogger
		defer func() { defaultLogger = prev }()

		require.NoError(t, Init("debug", "", false))
		var buf bytes.Buffer
		defaultLogger.SetOutput(&buf)

		Debug("routed %s", "here")
		assert.Contains(t, buf.String(), "[DEBUG] routed here")
	})
}
