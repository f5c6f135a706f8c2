package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: JUPARC_[SECTION]_[KEY] (e.g., JUPARC_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Scan
	setEnvList(&cfg.Scan.Roots, "JUPARC_SCAN_ROOTS")
	setEnvInt(&cfg.Scan.Workers, "JUPARC_SCAN_WORKERS")
	setEnvFloat64(&cfg.Scan.MaxPerSecond, "JUPARC_SCAN_MAX_NOTEBOOKS_PER_SECOND")

	// Locality
	setEnvInt(&cfg.Locality.CacheSize, "JUPARC_LOCALITY_CACHE_SIZE")

	// Database
	setEnvBool(&cfg.DB.Enabled, "JUPARC_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "JUPARC_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "JUPARC_DB_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "JUPARC_WATCH_DEBOUNCE")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "JUPARC_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.TraceExporter, "JUPARC_OBSERVABILITY_TRACE_EXPORTER")
	setEnvString(&cfg.Observability.OTLPEndpoint, "JUPARC_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "JUPARC_OBSERVABILITY_OTLP_INSECURE")

	// Output
	setEnvString(&cfg.Output.Format, "JUPARC_OUTPUT_FORMAT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = out
		}
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
