package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestResolvePrecedence(t *testing.T) {
	t.Run("defaults apply when nothing is set", func(t *testing.T) {
		cfg, err := Resolve("", AppConfig{}, noEnv)
		require.NoError(t, err)
		assert.Equal(t, DefaultServerURL, cfg.ServerURL)
		assert.NotEmpty(t, cfg.TokenPath)
		assert.NotEmpty(t, cfg.ArchivePath)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_url: https://decrees.example.com\nverbose: true\n"), 0o644))

		cfg, err := Resolve(path, AppConfig{}, noEnv)
		require.NoError(t, err)
		assert.Equal(t, "https://decrees.example.com", cfg.ServerURL)
		assert.True(t, cfg.Verbose)
	})

	t.Run("env overrides the file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_url: https://from-file.example.com\n"), 0o644))

		getenv := func(key string) string {
			if key == "DECREECHAT_SERVER" {
				return "https://from-env.example.com"
			}
			return ""
		}
		cfg, err := Resolve(path, AppConfig{}, getenv)
		require.NoError(t, err)
		assert.Equal(t, "https://from-env.example.com", cfg.ServerURL)
	})

	t.Run("flags override everything", func(t *testing.T) {
		getenv := func(key string) string {
			if key == "DECREECHAT_SERVER" {
				return "https://from-env.example.com"
			}
			return ""
		}
		cfg, err := Resolve("", AppConfig{ServerURL: "https://from-flag.example.com"}, getenv)
		require.NoError(t, err)
		assert.Equal(t, "https://from-flag.example.com", cfg.ServerURL)
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "absent.yaml"), AppConfig{}, noEnv)
		assert.Error(t, err)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server_url: [broken\n"), 0o644))
		_, err := Resolve(path, AppConfig{}, noEnv)
		assert.Error(t, err)
	})
}

func TestParseFlagsAndArgs(t *testing.T) {
	cfg, rest, err := Parse([]string{"-server", "https://cli.example.com", "upload", "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "https://cli.example.com", cfg.ServerURL)
	assert.Equal(t, []string{"upload", "a.pdf"}, rest)
}
