package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadenza.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	// The file should now exist and load back to the same values.
	_, err = os.Stat(path)
	require.NoError(t, err)
	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadenza.yaml")
	content := "database_path: /tmp/other.db\nlog_level: debug\norder: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Order)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultConfig().Length, cfg.Length)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadenza.yaml")
	require.NoError(t, os.WriteFile(path, []byte("order: [not an int"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "WARN", "Error"} {
		_, err := parseLogLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := parseLogLevel("loud")
	assert.Error(t, err)
}
