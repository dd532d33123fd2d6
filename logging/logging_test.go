package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(" info "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("verbose"))
}

func TestNewRespectsLevelAndSkipsColor(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Debug("hidden")
	logger.Info("shown", "items", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "items=3")
	assert.NotContains(t, out, "\x1b[", "non-terminal writers must not receive colour codes")
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minitodo.log")
	logger, closer, err := OpenFile(path, "debug")
	require.NoError(t, err)
	logger.Debug("first")
	require.NoError(t, closer.Close())

	logger, closer, err = OpenFile(path, "debug")
	require.NoError(t, err)
	logger.Debug("second")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), "second")
}
