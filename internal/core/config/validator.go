package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateScan(cfg); err != nil {
		return err
	}
	if err := validateObservability(cfg); err != nil {
		return err
	}
	return validateOutput(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxPerSecond < 0 {
		return fmt.Errorf("scan.max_notebooks_per_second must be >= 0, got %g", cfg.Scan.MaxPerSecond)
	}
	patterns := map[string][]string{
		"scan.include":       cfg.Scan.Include,
		"scan.exclude_dirs":  cfg.Scan.ExcludeDirs,
		"scan.exclude_files": cfg.Scan.ExcludeFiles,
	}
	for field, values := range patterns {
		for i, pattern := range values {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return fmt.Errorf("%s[%d] is not a valid glob %q: %w", field, i, pattern, err)
			}
		}
	}
	return nil
}

func validateObservability(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Observability.TraceExporter)) {
	case "none", "otlp":
	default:
		return fmt.Errorf("observability.trace_exporter must be one of: none, otlp")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Output.Format)) {
	case "json", "tsv":
		return nil
	default:
		return fmt.Errorf("output.format must be one of: json, tsv")
	}
}
