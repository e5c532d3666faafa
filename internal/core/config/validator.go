package config

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateRegistry(cfg *Config) error {
	switch cfg.Registry.Mode {
	case RegistryModeDirectory:
		if len(cfg.Registry.Patterns) == 0 {
			return fmt.Errorf("registry.patterns must not be empty in directory mode")
		}
		if len(cfg.Registry.Markers) == 0 {
			return fmt.Errorf("registry.markers must not be empty in directory mode")
		}
		if err := validateGlobs("registry.patterns", cfg.Registry.Patterns); err != nil {
			return err
		}
	case RegistryModeFile:
		if cfg.Registry.File == "" {
			return fmt.Errorf("registry.file must not be empty in file mode")
		}
	default:
		return fmt.Errorf("registry.mode must be one of: directory, file")
	}
	return nil
}

func validateScan(cfg *Config) error {
	if len(cfg.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	if cfg.Scan.Duplicates != "error" && cfg.Scan.Duplicates != "warn" {
		return fmt.Errorf("scan.duplicates must be one of: error, warn")
	}
	if cfg.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	if err := validateGlobs("scan.exclude_dirs", cfg.Scan.ExcludeDirs); err != nil {
		return err
	}
	return validateGlobs("scan.exclude_files", cfg.Scan.ExcludeFiles)
}

func validateRender(cfg *Config) error {
	if cfg.Render.Format != "php" && cfg.Render.Format != "json" {
		return fmt.Errorf("render.format must be one of: php, json")
	}
	if !isIdentifier(cfg.Render.RootVariable) {
		return fmt.Errorf("render.root_variable %q is not a valid variable name", cfg.Render.RootVariable)
	}
	files := map[string]string{
		"render.class_map_file": cfg.Render.ClassMapFile,
		"render.prefix_file":    cfg.Render.PrefixFile,
		"render.alias_file":     cfg.Render.AliasFile,
	}
	seen := make(map[string]string, len(files))
	for _, key := range []string{"render.class_map_file", "render.prefix_file", "render.alias_file"} {
		name := files[key]
		if name == "" || filepath.Base(name) != name {
			return fmt.Errorf("%s must be a plain file name, got %q", key, name)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s must differ, both are %q", other, key, name)
		}
		seen[name] = key
	}
	return nil
}

func validateGenerator(cfg *Config) error {
	if cfg.Generator.PackageErrors != "abort" && cfg.Generator.PackageErrors != "skip" {
		return fmt.Errorf("generator.package_errors must be one of: abort, skip")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxPerMinute < 0 {
		return fmt.Errorf("watch.max_per_minute must be >= 0, got %d", cfg.Watch.MaxPerMinute)
	}
	return nil
}

func validateGlobs(key string, patterns []string) error {
	for _, p := range patterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("%s contains invalid pattern %q: %w", key, p, err)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
