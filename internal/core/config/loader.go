package config

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section. It is run by Load and again by callers
// after env or flag overrides.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateVersion,
		validateRegistry,
		validateScan,
		validateRender,
		validateGenerator,
		validateWatch,
	}
	for _, validate := range validators {
		if err := validate(cfg); err != nil {
			return err
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.InstallRoot) == "" {
		cfg.Paths.InstallRoot = "."
	}
	if strings.TrimSpace(cfg.Paths.OutputDir) == "" {
		cfg.Paths.OutputDir = "typo3conf/autoload"
	}

	if strings.TrimSpace(cfg.Registry.Mode) == "" {
		cfg.Registry.Mode = RegistryModeDirectory
	}
	if strings.TrimSpace(cfg.Registry.File) == "" {
		cfg.Registry.File = "typo3conf/packages.toml"
	}
	if len(cfg.Registry.Patterns) == 0 {
		cfg.Registry.Patterns = []string{"typo3/sysext/*", "typo3conf/ext/*"}
	}
	if len(cfg.Registry.Markers) == 0 {
		cfg.Registry.Markers = []string{"composer.json", "ext_emconf.php"}
	}
	if strings.TrimSpace(cfg.Registry.FrameworkPrefix) == "" {
		cfg.Registry.FrameworkPrefix = "typo3/sysext"
	}

	if strings.TrimSpace(cfg.Manifest.File) == "" {
		cfg.Manifest.File = "composer.json"
	}

	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".php", ".inc"}
	}
	if cfg.Scan.ExcludeDirs == nil {
		cfg.Scan.ExcludeDirs = []string{"Tests", "tests", "vendor", "node_modules", ".*"}
	}
	if strings.TrimSpace(cfg.Scan.Duplicates) == "" {
		cfg.Scan.Duplicates = "error"
	}

	if len(cfg.Alias.Files) == 0 {
		cfg.Alias.Files = []string{
			"Migrations/Code/ClassAliasMap.yaml",
			"Migrations/Code/ClassAliasMap.json",
		}
	}

	if strings.TrimSpace(cfg.Render.Format) == "" {
		cfg.Render.Format = "php"
	}
	if strings.TrimSpace(cfg.Render.RootVariable) == "" {
		cfg.Render.RootVariable = "typo3InstallDir"
	}
	if strings.TrimSpace(cfg.Render.RootExpression) == "" {
		cfg.Render.RootExpression = "PATH_site"
	}
	ext := "." + strings.ToLower(strings.TrimSpace(cfg.Render.Format))
	if strings.TrimSpace(cfg.Render.ClassMapFile) == "" {
		cfg.Render.ClassMapFile = "autoload_classmap" + ext
	}
	if strings.TrimSpace(cfg.Render.PrefixFile) == "" {
		cfg.Render.PrefixFile = "autoload_psr4" + ext
	}
	if strings.TrimSpace(cfg.Render.AliasFile) == "" {
		cfg.Render.AliasFile = "autoload_classaliasmap" + ext
	}

	if strings.TrimSpace(cfg.Generator.PackageErrors) == "" {
		cfg.Generator.PackageErrors = "abort"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "typo3temp/var/autoload/history.db"
	}

	// Default debounce if not set.
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxPerMinute == 0 {
		cfg.Watch.MaxPerMinute = 12
	}
}

// SetFormat switches the render format. Artifact names still carrying the
// previous format's default are renamed to the new format's default.
func SetFormat(cfg *Config, format string) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || format == cfg.Render.Format {
		return
	}
	oldExt := "." + cfg.Render.Format
	newExt := "." + format
	for _, name := range []*string{&cfg.Render.ClassMapFile, &cfg.Render.PrefixFile, &cfg.Render.AliasFile} {
		for _, base := range []string{"autoload_classmap", "autoload_psr4", "autoload_classaliasmap"} {
			if *name == base+oldExt {
				*name = base + newExt
			}
		}
	}
	cfg.Render.Format = format
}

func normalize(cfg *Config) {
	cfg.Paths.InstallRoot = strings.TrimSpace(cfg.Paths.InstallRoot)
	cfg.Paths.OutputDir = strings.TrimSpace(cfg.Paths.OutputDir)

	cfg.Registry.Mode = strings.ToLower(strings.TrimSpace(cfg.Registry.Mode))
	cfg.Registry.File = strings.TrimSpace(cfg.Registry.File)
	cfg.Registry.Patterns = normalizeList(cfg.Registry.Patterns)
	cfg.Registry.Markers = normalizeList(cfg.Registry.Markers)
	cfg.Registry.FrameworkPrefix = strings.Trim(path.Clean("/"+strings.ReplaceAll(strings.TrimSpace(cfg.Registry.FrameworkPrefix), "\\", "/")), "/")

	cfg.Manifest.File = strings.TrimSpace(cfg.Manifest.File)

	exts := normalizeList(cfg.Scan.Extensions)
	for i, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			exts[i] = "." + ext
		}
	}
	cfg.Scan.Extensions = exts
	cfg.Scan.ExcludeDirs = normalizeList(cfg.Scan.ExcludeDirs)
	cfg.Scan.ExcludeFiles = normalizeList(cfg.Scan.ExcludeFiles)
	cfg.Scan.Duplicates = strings.ToLower(strings.TrimSpace(cfg.Scan.Duplicates))

	cfg.Alias.Files = normalizeList(cfg.Alias.Files)

	cfg.Render.Format = strings.ToLower(strings.TrimSpace(cfg.Render.Format))
	cfg.Render.RootVariable = strings.TrimPrefix(strings.TrimSpace(cfg.Render.RootVariable), "$")
	cfg.Render.RootExpression = strings.TrimSpace(cfg.Render.RootExpression)
	cfg.Render.ClassMapFile = strings.TrimSpace(cfg.Render.ClassMapFile)
	cfg.Render.PrefixFile = strings.TrimSpace(cfg.Render.PrefixFile)
	cfg.Render.AliasFile = strings.TrimSpace(cfg.Render.AliasFile)

	cfg.Generator.PackageErrors = strings.ToLower(strings.TrimSpace(cfg.Generator.PackageErrors))

	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.Observability.MetricsFile = strings.TrimSpace(cfg.Observability.MetricsFile)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
