package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
registry:
  base_url: "https://registry.example/search?rsn="
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 4, cfg.Registry.MaxAttempts)
	require.Equal(t, 20*time.Second, cfg.Registry.Timeout)
	require.Equal(t, 4, cfg.Scan.Workers)
	require.Equal(t, 10, cfg.Scan.GiveUp)
	require.Equal(t, 1000, cfg.Scan.BackfillLimit)
	require.Equal(t, "permits", cfg.DB.Table)
	require.Equal(t, 3*time.Second, cfg.Publish.Delay)
	require.Equal(t, time.Minute, cfg.Publish.Interval)
	require.Equal(t, "none", cfg.Archive.Backend)
	require.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
registry:
  base_url: "https://registry.example/search?rsn="
  max_attempts: 2
scan:
  workers: 6
  give_up: 25
publish:
  delay: 5s
archive:
  backend: fs
  dir: /tmp/pages
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Registry.MaxAttempts)
	require.Equal(t, 6, cfg.Scan.Workers)
	require.Equal(t, 25, cfg.Scan.GiveUp)
	require.Equal(t, 5*time.Second, cfg.Publish.Delay)
	require.Equal(t, "fs", cfg.Archive.Backend)
}

func TestLoadMissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
scan:
  workers: 2
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "registry.base_url")
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := Config{
		Registry: RegistryConfig{BaseURL: "https://registry.example/", MaxAttempts: 4},
		Scan:     ScanConfig{Workers: 1, GiveUp: 1, BackfillLimit: 100},
		Server:   ServerConfig{Port: 8000},
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero workers", mutate: func(c *Config) { c.Scan.Workers = 0 }},
		{name: "zero give up", mutate: func(c *Config) { c.Scan.GiveUp = 0 }},
		{name: "oversized backfill", mutate: func(c *Config) { c.Scan.BackfillLimit = 5001 }},
		{name: "fs backend without dir", mutate: func(c *Config) { c.Archive.Backend = "fs" }},
		{name: "gcs backend without bucket", mutate: func(c *Config) { c.Archive.Backend = "gcs" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Archive.Backend = "s3" }},
		{name: "topic without project", mutate: func(c *Config) { c.Events.Topic = "captures" }},
		{name: "zero port", mutate: func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
