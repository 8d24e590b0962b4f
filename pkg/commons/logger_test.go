package commons

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewApplicationLogger_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewApplicationLogger(Name("test-logger"), Path(dir), Level("info"))
	require.NoError(t, err)

	logger.Infof("hello %s", "world")
	logger.Debugf("should be filtered")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test-logger.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
	assert.NotContains(t, string(data), "should be filtered")
	assert.Equal(t, zapcore.InfoLevel, logger.Level())
}

func TestNewApplicationLogger_InvalidLevel(t *testing.T) {
	_, err := NewApplicationLogger(Path(t.TempDir()), Level("loud"))
	assert.Error(t, err)
}

func TestLoggerWith_KeepsLevel(t *testing.T) {
	logger, err := NewApplicationLogger(Path(t.TempDir()), Level("warn"))
	require.NoError(t, err)
	child := logger.With("requestId", "abc")
	assert.Equal(t, zapcore.WarnLevel, child.Level())
}
