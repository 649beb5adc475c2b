package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.log")
	log := New(Options{Level: "info", File: path})

	log.Info("top-up requested", "id", "TOP-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"TOP-1"`)
	assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
}
