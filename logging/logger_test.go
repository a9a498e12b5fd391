package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterEmitsPairs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	logger.Info("agent.run.start", "role", "assistant", "iterations", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent.run.start", entry["message"])
	assert.Equal(t, "assistant", entry["role"])
	assert.Equal(t, float64(3), entry["iterations"])
	assert.Equal(t, "info", entry["level"])
}

func TestZerologAdapterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden too")
	assert.Zero(t, buf.Len())

	logger.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestZerologAdapterOddArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)

	// A trailing key without a value is dropped rather than panicking.
	logger.Info("msg", "key")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "msg", entry["message"])
	_, hasKey := entry["key"]
	assert.False(t, hasKey)
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	l.Debug("a")
	l.Info("b", "k", "v")
	l.Warn("c")
	l.Error("d")
}
