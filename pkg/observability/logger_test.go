package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, level LogLevel) *slog.Logger {
	return NewLogger(LogConfig{
		Level:          level,
		Format:         LogFormatJSON,
		Output:         buf,
		ServiceName:    ServiceName,
		ServiceVersion: "1.2.3",
	})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		require.NoError(t, dec.Decode(&entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})

	logger.Info("recommendation ready", "task_id", "t1")

	assert.Contains(t, buf.String(), "recommendation ready")
	assert.Contains(t, buf.String(), "task_id=t1")
}

func TestNewLogger_JSONWithServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, LogLevelInfo).Info("started")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "started", entries[0]["msg"])
	assert.Equal(t, "nextup", entries[0]["service"])
	assert.Equal(t, "1.2.3", entries[0]["version"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LogLevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "warn message", entries[0]["msg"])
}

func TestNewLogger_ContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf, LogLevelInfo).With("component", "engine")

	ctx := WithCorrelationID(context.Background(), "corr-123")
	ctx = WithRequestID(ctx, "req-456")
	ctx = WithUserID(ctx, "alice")
	logger.InfoContext(ctx, "with context")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "corr-123", entries[0][CorrelationIDKey])
	assert.Equal(t, "req-456", entries[0][RequestIDKey])
	assert.Equal(t, "alice", entries[0][UserIDKey])
	assert.Equal(t, "engine", entries[0]["component"])
	assert.Equal(t, "nextup", entries[0]["service"])
}

func TestLogConfigs(t *testing.T) {
	def := DefaultLogConfig()
	assert.Equal(t, LogFormatText, def.Format)
	assert.Equal(t, "nextup", def.ServiceName)

	prod := ProductionLogConfig()
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("NEXTUP_ENV", "")
	t.Setenv("NEXTUP_LOG_LEVEL", "debug")
	t.Setenv("NEXTUP_LOG_FORMAT", "JSON")

	logger := LoggerFromEnv("0.1.0")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	LogOperation(logger, "recommend", "user_id", "alice").Info("running")

	output := buf.String()
	assert.Contains(t, output, "operation=recommend")
	assert.Contains(t, output, "user_id=alice")
	assert.Contains(t, output, "msg=running")
}
