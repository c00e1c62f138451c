package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.Scrape.DefaultURL)
	assert.Equal(t, 10, cfg.Scrape.MaxPages)
	assert.True(t, cfg.Console.AutoScroll)
	assert.FileExists(t, path)
}

func TestLoadFromMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\nbase_url = \"http://engine:9999\"\n"), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://engine:9999", cfg.Engine.BaseURL)
	assert.Equal(t, 30, cfg.Engine.RequestTimeout, "missing values fall back to defaults")
	assert.Equal(t, 10, cfg.Scrape.MaxPages)
	assert.Equal(t, "tmp", cfg.Console.LogDir)
}

func TestEnvOverridesEngineURL(t *testing.T) {
	t.Setenv("CHAINSCRAPE_ENGINE_URL", "http://override:1234")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://override:1234", cfg.Engine.BaseURL)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Scrape.MaxPages = 25

	require.NoError(t, SaveTo(cfg, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 25, loaded.Scrape.MaxPages)
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, Set(cfg, "engine.base_url=http://other:8000"))
	assert.Equal(t, "http://other:8000", cfg.Engine.BaseURL)

	require.NoError(t, Set(cfg, "scrape.max_pages=42"))
	assert.Equal(t, 42, cfg.Scrape.MaxPages)

	require.NoError(t, Set(cfg, "console.auto_scroll=false"))
	assert.False(t, cfg.Console.AutoScroll)

	require.NoError(t, Set(cfg, "console.log_dir=logs"))
	assert.Equal(t, "logs", cfg.Console.LogDir)

	assert.Error(t, Set(cfg, "scrape.max_pages=nope"))
	assert.Error(t, Set(cfg, "bogus"))
	assert.Error(t, Set(cfg, "nosuch.key=1"))
}
