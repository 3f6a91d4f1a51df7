package enginelog

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level slog.Level) (log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	sl := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return NewAdapter(sl), &buf
}

func TestAdapterLevels(t *testing.T) {
	logger, buf := newBufferLogger(log.LevelTrace)

	for _, tt := range []struct {
		emit func(string, ...any)
		msg  string
	}{
		{logger.Trace, "trace message"},
		{logger.Debug, "debug message"},
		{logger.Info, "info message"},
		{logger.Warn, "warn message"},
		{logger.Error, "error message"},
	} {
		buf.Reset()
		tt.emit(tt.msg, "key", "value")
		assert.Contains(t, buf.String(), tt.msg)
		assert.Contains(t, buf.String(), `"key":"value"`)
	}
}

func TestAdapterFiltersByLevel(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestAdapterWith(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo)
	logger.With("component", "builder").Info("sealed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "builder", record["component"])
	assert.Equal(t, "sealed", record["msg"])
}

func TestEnrichErrors(t *testing.T) {
	err := errors.New("boom")

	out := enrichErrors([]any{"number", 1, "err", err, "tail"})
	require.Len(t, out, 4)
	assert.Equal(t, []any{"number", 1}, out[:2])
	_, isAttr := out[2].(slog.Attr)
	assert.True(t, isAttr)
	assert.Equal(t, "tail", out[3])

	// Non-error values under an error-looking key are left untouched.
	out = enrichErrors([]any{"error", "text"})
	assert.Equal(t, []any{"error", "text"}, out)

	assert.Empty(t, enrichErrors(nil))
}
