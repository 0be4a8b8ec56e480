package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	appconfig "github.com/bookkeep/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"default config", DefaultConfig()},
		{"json format", &Config{Level: "debug", Format: "json", Output: "stderr", TimeFormat: "2006-01-02T15:04:05.000Z07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			logger.Info("test message")
		})
	}
}

func TestNewFromAppConfig(t *testing.T) {
	t.Run("explicit settings", func(t *testing.T) {
		logger, err := NewFromAppConfig(appconfig.LogConfig{Level: "debug", Format: "json", Output: "stderr"})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("empty settings fall back to defaults", func(t *testing.T) {
		logger, err := NewFromAppConfig(appconfig.LogConfig{})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestCreateWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New(&Config{Level: "info", Format: "json", Output: path, TimeFormat: "2006-01-02"})
	require.NoError(t, err)

	logger.Info("written to file")
	require.NoError(t, Sync(logger))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))
}
