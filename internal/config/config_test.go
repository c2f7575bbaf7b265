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
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./staging", cfg.StagingDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "./keywords.yaml", cfg.KeywordsPath)
	assert.Equal(t, "./sessions.db", cfg.SessionDB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)

	// Writable directories are created eagerly.
	assert.DirExists(t, filepath.Join(dir, "staging"))
	assert.DirExists(t, filepath.Join(dir, "output"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
staging_dir: ./work
output_dir: ./reports
workers: 4
http:
  timeout_seconds: 15
  max_retries: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./work", cfg.StagingDir)
	assert.Equal(t, "./reports", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, 5, cfg.HTTP.MaxRetries)
	assert.DirExists(t, filepath.Join(dir, "work"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
