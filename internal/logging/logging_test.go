package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerIncludesBoundAttrs(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	logger := New(&buf, "pretty", "debug").With("attempt_id", "a-1")

	logger.Debug("question finalized", "correct", true)
	out := buf.String()
	assert.Contains(t, out, "DEBUG:")
	assert.Contains(t, out, "question finalized")
	assert.Contains(t, out, "attempt_id=a-1")
	assert.Contains(t, out, "correct=true")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", "warn")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", "k", "v")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
