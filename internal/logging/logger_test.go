package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epiwave/epiwave/internal/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_FieldsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.DebugLevel).With("component", "test")

	logger.Info("loaded", "rows", 42)
	logger.Error("failed", "error", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "loaded", lines[0]["message"])
	assert.Equal(t, "test", lines[0]["component"])
	assert.Equal(t, float64(42), lines[0]["rows"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, zerolog.InfoLevel)

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRunID(ctx, "")
	ctx = WithCountry(ctx, "India")

	InfoCtx(ctx, "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "India", lines[0]["country"])
	assert.Equal(t, RunID(ctx), lines[0]["run_id"])
	assert.Len(t, RunID(ctx), 36)
}

func TestTrackStage(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewWithWriter(&buf, zerolog.InfoLevel))

	var seen string
	err := TrackStage(ctx, "features", func(ctx context.Context) error {
		seen, _ = ctx.Value(stageKey).(string)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "features", seen)

	wantErr := errors.New("no data")
	err = TrackStage(ctx, "ingest", func(ctx context.Context) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Stage completed", lines[0]["message"])
	assert.Equal(t, "features", lines[0]["stage"])
	assert.Equal(t, "Stage failed", lines[1]["message"])
	assert.Equal(t, "no data", lines[1]["error"])
}

func TestNewFromConfig_File(t *testing.T) {
	path := t.TempDir() + "/logs/epiwave.log"
	logger, err := NewFromConfig(config.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		OutputPath: path,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("written")
}
