package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "juparc.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[scan]
roots = ["./notebooks"]
exclude_dirs = [".git"]
workers = 4
max_notebooks_per_second = 20.5

[extract]
transform_magics = false

[db]
enabled = true
path = "out/results.db"

[watch]
debounce = "1s"

[output]
format = "tsv"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"./notebooks"}, cfg.Scan.Roots)
	assert.Equal(t, []string{".git"}, cfg.Scan.ExcludeDirs)
	assert.Equal(t, []string{"**.ipynb"}, cfg.Scan.Include)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.InDelta(t, 20.5, cfg.Scan.MaxPerSecond, 0.0001)
	assert.False(t, cfg.TransformMagics())
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, "out/results.db", cfg.DB.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "tsv", cfg.Output.Format)
	assert.Equal(t, DefaultCountWords, cfg.Extract.CountWords)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"."}, cfg.Scan.Roots)
	assert.True(t, cfg.TransformMagics())
	assert.False(t, cfg.DB.Enabled)
	assert.Equal(t, "juparc.db", cfg.DB.Path)
	assert.Equal(t, 256, cfg.Locality.CacheSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "none", cfg.Observability.TraceExporter)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.NoError(t, Validate(cfg))
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "negative workers", content: "[scan]\nworkers = -1\n"},
		{name: "bad output", content: "[output]\nformat = \"xml\"\n"},
		{name: "bad exporter", content: "[observability]\ntrace_exporter = \"zipkin\"\n"},
		{name: "bad glob", content: "[scan]\ninclude = [\"[\"]\n"},
		{name: "bad version", content: "version = 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("JUPARC_SCAN_WORKERS", "7")
	t.Setenv("JUPARC_SCAN_ROOTS", "a, b")
	t.Setenv("JUPARC_DB_ENABLED", "true")
	t.Setenv("JUPARC_WATCH_DEBOUNCE", "2s")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, 7, cfg.Scan.Workers)
	assert.Equal(t, []string{"a", "b"}, cfg.Scan.Roots)
	assert.True(t, cfg.DB.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}
