package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, dir string) *Config {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadFrom(t, t.TempDir())

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "directory.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 70, cfg.Validation.ScoreThreshold)
	assert.Equal(t, 15, cfg.Validation.PhoneDeduction)
	assert.Equal(t, 20, cfg.Validation.AddressDeduction)
	assert.Equal(t, []string{"web", "mobile", "print"}, cfg.Reconcile.SourcePrecedence)
	assert.Equal(t, 5, cfg.Reconcile.TrustedMinLength)
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.True(t, cfg.Batch.ContinueOnError)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/directory
validation:
  score_threshold: 80
reconcile:
  trusted_min_length: 8
batch:
  concurrency: 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg := loadFrom(t, dir)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/directory", cfg.Store.DatabaseURL)
	assert.Equal(t, 80, cfg.Validation.ScoreThreshold)
	assert.Equal(t, 8, cfg.Reconcile.TrustedMinLength)
	assert.Equal(t, 12, cfg.Batch.Concurrency)
	// Untouched sections keep defaults.
	assert.Equal(t, 15, cfg.Validation.PhoneDeduction)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DIRECTORY_VALIDATION_SCORE_THRESHOLD", "60")
	t.Setenv("DIRECTORY_LOG_FORMAT", "console")

	cfg := loadFrom(t, t.TempDir())

	assert.Equal(t, 60, cfg.Validation.ScoreThreshold)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
