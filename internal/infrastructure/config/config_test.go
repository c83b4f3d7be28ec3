package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("returns defaults when config file is missing", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.Qdrant.Host)
		assert.Equal(t, 6334, cfg.Qdrant.Port)
		assert.Equal(t, "weave_entities", cfg.Qdrant.Collection)
		assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
		assert.Equal(t, ":8787", cfg.Server.Addr)
		assert.Equal(t, filepath.Join(dir, DefaultConfigDir, DefaultDBFile), cfg.SQLite.Path)
	})

	t.Run("loads values from config file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultConfigDir), 0o755))
		raw := "qdrant:\n  host: qdrant.internal\n  port: 7000\nserver:\n  addr: \":9999\"\nlogging:\n  env: production\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFile), []byte(raw), 0o644))

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
		assert.Equal(t, 7000, cfg.Qdrant.Port)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, "production", cfg.Logging.Env)
		// Unset file values keep the defaults.
		assert.Equal(t, "weave_entities", cfg.Qdrant.Collection)
	})

	t.Run("resolves relative sqlite path against config dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultConfigDir), 0o755))
		raw := "sqlite:\n  path: custom.db\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFile), []byte(raw), 0o644))

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(dir, DefaultConfigDir, "custom.db"), cfg.SQLite.Path)
	})

	t.Run("fails on malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultConfigDir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFile), []byte("qdrant: ["), 0o644))

		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})

	t.Run("applies environment overrides", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("WEAVE_DB_PATH", "/tmp/override.db")
		t.Setenv("WEAVE_ADDR", ":4242")

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
		assert.Equal(t, "/tmp/override.db", cfg.SQLite.Path)
		assert.Equal(t, ":4242", cfg.Server.Addr)
	})

	t.Run("config file api key wins over environment", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, DefaultConfigDir), 0o755))
		raw := "embedder:\n  api_key: sk-from-file\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigDir, DefaultConfigFile), []byte(raw), 0o644))
		t.Setenv("OPENAI_API_KEY", "sk-from-env")

		cfg, err := Load(dir)
		require.NoError(t, err)

		assert.Equal(t, "sk-from-file", cfg.Embedder.APIKey)
	})
}

func TestSave(t *testing.T) {
	t.Run("round trips through save and load", func(t *testing.T) {
		dir := t.TempDir()
		cfg := Default()
		cfg.Qdrant.Host = "vectors.local"
		cfg.Server.Addr = ":5050"

		require.NoError(t, Save(dir, cfg))

		loaded, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "vectors.local", loaded.Qdrant.Host)
		assert.Equal(t, ":5050", loaded.Server.Addr)
	})
}
