package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"spatialbench/internal/config"
)

func TestJSONLoggerCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "info", Format: "auto"}, &buf, "run-1")
	require.NoError(t, err)

	logger.Info("comparison written", zap.String("dataset", "SN048"))
	logger.Debug("dropped")
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "SN048", entry["dataset"])
	assert.Equal(t, "comparison written", entry["msg"])
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.Log{Level: "debug", Format: "console"}, &buf, "run-2")
	require.NoError(t, err)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "DEBUG")
}

func TestBadLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"}, &bytes.Buffer{}, "x")
	assert.Error(t, err)
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
