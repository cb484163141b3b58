package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Act: no file, no env.
	cfg, err := Load("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8420, cfg.Server.Port)
	assert.Equal(t, "http://127.0.0.1:8421", cfg.Kernel.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Kernel.RequestTimeout)
	assert.Equal(t, "cascade.db", cfg.Persistence.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 8420, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "cascade.yaml")
	content := `
environment: production
server:
  port: 9000
kernel:
  baseUrl: http://kernel:8421
logging:
  level: warn
  format: json
domain:
  maxHistoryEntries: 25
  steepSlopeWarning: 0.04
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Act
	cfg, err := Load(path)

	// Assert: file values win over defaults, untouched keys keep theirs.
	require.NoError(t, err)
	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://kernel:8421", cfg.Kernel.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Kernel.RequestTimeout)
	assert.Equal(t, 25, cfg.Domain.MaxHistoryEntries)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "cascade.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))
	t.Setenv("CASCADE_PORT", "9999")
	t.Setenv("CASCADE_KERNEL_URL", "http://10.0.0.5:8421")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "http://10.0.0.5:8421", cfg.Kernel.BaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad environment", "environment: staging\n"},
		{"bad port", "server:\n  port: 0\n"},
		{"bad kernel url", "kernel:\n  baseUrl: not-a-url\n"},
		{"bad log level", "logging:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cascade.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Load(path)

			assert.Error(t, err)
		})
	}
}

func TestToDomainMergesOverDefaults(t *testing.T) {
	// Arrange
	cfg := Default()
	cfg.Domain.SteepSlopeWarning = 0.04
	cfg.Domain.MaxHistoryEntries = 25

	// Act
	d := cfg.ToDomain()

	// Assert: set values override, unset values keep engineering defaults.
	assert.Equal(t, 0.04, d.SteepSlopeWarning)
	assert.Equal(t, 25, d.MaxHistoryEntries)
	assert.Equal(t, 0.15, d.SteepSlopeError)
	assert.Equal(t, 0.3, d.MinFreeboard)
}
