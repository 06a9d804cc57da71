package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitWritesJSONWithService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	t.Cleanup(func() { Logger = zap.NewNop() })

	Init(Options{Level: "debug", Format: "json", OutputPath: path, Environment: "production", Service: "attendtrack-worker"})
	Logger.Debug("backfill done", zap.String("date", "2024-03-01"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"service":"attendtrack-worker"`)
	assert.Contains(t, out, `"msg":"backfill done"`)
	assert.Contains(t, out, `"date":"2024-03-01"`)
}

func TestParseZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseZapLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseZapLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseZapLevel("verbose"))
}
