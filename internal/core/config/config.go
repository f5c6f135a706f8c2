package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Scan          Scan          `toml:"scan"`
	Extract       Extract       `toml:"extract"`
	Locality      Locality      `toml:"locality"`
	DB            Database      `toml:"db"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Scan struct {
	Roots        []string `toml:"roots"`
	Include      []string `toml:"include"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Workers      int      `toml:"workers"`
	// MaxPerSecond paces notebook starts; 0 disables pacing.
	MaxPerSecond float64 `toml:"max_notebooks_per_second"`
}

type Extract struct {
	TransformMagics *bool    `toml:"transform_magics"`
	CountWords      []string `toml:"count_words"`
}

type Locality struct {
	CacheSize int `toml:"cache_size"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr"`
	TraceExporter string `toml:"trace_exporter"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
	ServiceName   string `toml:"service_name"`
}

type Output struct {
	Format string `toml:"format"`
}

var DefaultCountWords = []string{"homework", "assignment", "course", "exercise", "lesson"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (c *Config) TransformMagics() bool {
	return c.Extract.TransformMagics == nil || *c.Extract.TransformMagics
}
