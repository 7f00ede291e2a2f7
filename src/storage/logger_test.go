package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestLoggerWritesJSONEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := NewFileLogger(path, "info")
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("loaded", zap.Int("rows", 3))
	logger.With(zap.String("run_id", "abc")).Warning("odd value", zap.String("column", "Edad"))
	logger.Fatal("giving up")
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 3)

	assert.Equal(t, "loaded", entries[0]["msg"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.EqualValues(t, 3, entries[0]["rows"])

	assert.Equal(t, "warn", entries[1]["level"])
	assert.Equal(t, "abc", entries[1]["run_id"])
	assert.Equal(t, "Edad", entries[1]["column"])

	assert.Equal(t, "error", entries[2]["level"])
	assert.Equal(t, true, entries[2]["fatal"])
}

func TestLoggerSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewFileLogger(path, "error")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.SetLevel(DEBUG)
	logger.Debug("kept")
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
}

func TestLoggerRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	logger, err := NewFileLogger(path, "info")
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 20; i++ {
		logger.Info(strings.Repeat("x", 50))
	}
	require.NoError(t, logger.CheckRotate("1 * 100"))
	logger.Info("after rotation")

	matches, err := filepath.Glob(filepath.Join(dir, "app.*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, logger.Close())
	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "after rotation", entries[0]["msg"])
}

func TestLoggerReopen(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFileLogger(filepath.Join(dir, "a.log"), "info")
	require.NoError(t, err)

	logger.Info("first")
	require.NoError(t, logger.Reopen(filepath.Join(dir, "b.log")))
	logger.Info("second")
	require.NoError(t, logger.Close())

	assert.Len(t, readEntries(t, filepath.Join(dir, "a.log")), 1)
	assert.Len(t, readEntries(t, filepath.Join(dir, "b.log")), 1)
}

func TestEval(t *testing.T) {
	n, err := eval("10 * 1024 * 1024")
	require.NoError(t, err)
	assert.EqualValues(t, 10*1024*1024, n)

	n, err = eval("512")
	require.NoError(t, err)
	assert.EqualValues(t, 512, n)

	_, err = eval("ten * 2")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARNING, ParseLevel("warn"))
	assert.Equal(t, INFO, ParseLevel("chatty"))
	assert.Equal(t, "WARNING", WARNING.String())
}
