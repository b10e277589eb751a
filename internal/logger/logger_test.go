package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.Logger{Level: "warn", Format: "json"})

	l.Info("dropped")
	l.Warn("kept", "order_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, float64(7), line["order_id"])
}

func TestInitLoggerFileOutput(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		logger = nil
	})

	path := filepath.Join(t.TempDir(), "logs", "storefront.log")
	_, err := InitLogger(config.Logger{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
		Env:      "test",
	}, "storefront")
	require.NoError(t, err)

	Info("checkout placed", "order_id", 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"service":"storefront"`)
	assert.Contains(t, string(raw), `"env":"test"`)
	assert.Contains(t, string(raw), "checkout placed")
}

func TestOr(t *testing.T) {
	d := Discard()
	assert.Same(t, d, Or(d))
	assert.NotNil(t, Or(nil))
}
