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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Crawl.MaxPages)
	assert.Equal(t, 3, cfg.Crawl.MaxDepth)
	assert.Equal(t, 5, cfg.Crawl.MaxConcurrent)
	assert.Equal(t, time.Second, cfg.Crawl.Delay)
	assert.Equal(t, 10*time.Second, cfg.Crawl.Timeout)
	assert.True(t, cfg.Crawl.RespectRobots)
	assert.Equal(t, "output.jsonl", cfg.Output.Path)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
crawl:
  max_pages: 25
  max_depth: 1
  delay: 250ms
  url_pattern: "/docs/"
output:
  path: corpus/docs.jsonl
  resume: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Crawl.MaxPages)
	assert.Equal(t, 1, cfg.Crawl.MaxDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawl.Delay)
	assert.Equal(t, "/docs/", cfg.Crawl.URLPattern)
	assert.Equal(t, "corpus/docs.jsonl", cfg.Output.Path)
	assert.True(t, cfg.Output.Resume)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Crawl.MaxConcurrent)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_pages", func(c *Config) { c.Crawl.MaxPages = 0 }},
		{"negative max_depth", func(c *Config) { c.Crawl.MaxDepth = -1 }},
		{"zero max_concurrent", func(c *Config) { c.Crawl.MaxConcurrent = 0 }},
		{"negative delay", func(c *Config) { c.Crawl.Delay = -time.Second }},
		{"zero timeout", func(c *Config) { c.Crawl.Timeout = 0 }},
		{"empty output path", func(c *Config) { c.Output.Path = "" }},
		{"bad url pattern", func(c *Config) { c.Crawl.URLPattern = "[" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
