package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/v0xg/deskpilot/internal/config"
)

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "console"}, zapcore.AddSync(&buf))

	logger.Named("executor").Debug("action done", zap.String("action", "click_at"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "deskpilot.executor.")
	assert.Contains(t, out, "action done")
	assert.Contains(t, out, `"action": "click_at"`)
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	logger.Info("hello", zap.Int("frames", 3))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "deskpilot", entry["logger"])
	assert.Equal(t, "hello", entry["msg"])
	assert.EqualValues(t, 3, entry["frames"])
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))

	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskpilot.log")
	var console bytes.Buffer
	logger := NewLogger(config.LoggerConfig{
		Level:      "info",
		Format:     "console",
		File:       path,
		MaxSize:    1,
		MaxBackups: 1,
	}, zapcore.AddSync(&console))

	logger.Info("to both")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry), "file output is always JSON")
	assert.Equal(t, "to both", entry["msg"])
	assert.Contains(t, console.String(), "to both")
}
