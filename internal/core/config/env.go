package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	slog.Debug("loaded environment file", "path", path)
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: AUTOLOAD_[SECTION]_[KEY] (e.g., AUTOLOAD_SCAN_WORKERS). Lists are
// comma separated.
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.InstallRoot, "AUTOLOAD_PATHS_INSTALL_ROOT")
	setEnvString(&cfg.Paths.OutputDir, "AUTOLOAD_PATHS_OUTPUT_DIR")

	// Registry
	setEnvString(&cfg.Registry.Mode, "AUTOLOAD_REGISTRY_MODE")
	setEnvString(&cfg.Registry.File, "AUTOLOAD_REGISTRY_FILE")
	setEnvList(&cfg.Registry.Patterns, "AUTOLOAD_REGISTRY_PATTERNS")
	setEnvList(&cfg.Registry.Markers, "AUTOLOAD_REGISTRY_MARKERS")
	setEnvString(&cfg.Registry.FrameworkPrefix, "AUTOLOAD_REGISTRY_FRAMEWORK_PREFIX")

	setEnvString(&cfg.Manifest.File, "AUTOLOAD_MANIFEST_FILE")

	// Scan
	setEnvList(&cfg.Scan.Extensions, "AUTOLOAD_SCAN_EXTENSIONS")
	setEnvList(&cfg.Scan.ExcludeDirs, "AUTOLOAD_SCAN_EXCLUDE_DIRS")
	setEnvList(&cfg.Scan.ExcludeFiles, "AUTOLOAD_SCAN_EXCLUDE_FILES")
	setEnvString(&cfg.Scan.Duplicates, "AUTOLOAD_SCAN_DUPLICATES")
	setEnvInt(&cfg.Scan.Workers, "AUTOLOAD_SCAN_WORKERS")

	setEnvList(&cfg.Alias.Files, "AUTOLOAD_ALIAS_FILES")

	// Render
	if format, ok := os.LookupEnv("AUTOLOAD_RENDER_FORMAT"); ok {
		SetFormat(cfg, format)
	}
	setEnvString(&cfg.Render.RootVariable, "AUTOLOAD_RENDER_ROOT_VARIABLE")
	setEnvString(&cfg.Render.RootExpression, "AUTOLOAD_RENDER_ROOT_EXPRESSION")
	setEnvString(&cfg.Render.ClassMapFile, "AUTOLOAD_RENDER_CLASS_MAP_FILE")
	setEnvString(&cfg.Render.PrefixFile, "AUTOLOAD_RENDER_PREFIX_FILE")
	setEnvString(&cfg.Render.AliasFile, "AUTOLOAD_RENDER_ALIAS_FILE")

	setEnvString(&cfg.Generator.PackageErrors, "AUTOLOAD_GENERATOR_PACKAGE_ERRORS")

	// History
	setEnvBool(&cfg.History.Enabled, "AUTOLOAD_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "AUTOLOAD_HISTORY_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "AUTOLOAD_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxPerMinute, "AUTOLOAD_WATCH_MAX_PER_MINUTE")

	// Observability
	setEnvString(&cfg.Observability.MetricsFile, "AUTOLOAD_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.OTLPEndpoint, "AUTOLOAD_OBSERVABILITY_OTLP_ENDPOINT")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = normalizeList(strings.Split(val, ","))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val)
		}
	}
}
