package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"customer-health/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := newLogger(config.LoggerConfig{Level: "warn", Encoding: "json"}, buf)

	logger.Info("dropped")
	logger.Warn("kept", "customerID", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(7), entry["customerID"])
}

func TestNewLoggerText(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := newLogger(config.LoggerConfig{Level: "info", Encoding: "text"}, buf)

	logger.InfoContext(context.Background(), "hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
