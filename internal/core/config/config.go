package config

import (
	"time"
)

// Config is the on-disk TOML configuration of the generator.
type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Registry      Registry      `toml:"registry"`
	Manifest      Manifest      `toml:"manifest"`
	Scan          Scan          `toml:"scan"`
	Alias         Alias         `toml:"alias"`
	Render        Render        `toml:"render"`
	Generator     Generator     `toml:"generator"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	// InstallRoot is the application root every artifact path is relative to.
	InstallRoot string `toml:"install_root"`
	// OutputDir receives the generated artifacts; relative to InstallRoot.
	OutputDir string `toml:"output_dir"`
}

const (
	RegistryModeDirectory = "directory"
	RegistryModeFile      = "file"
)

type Registry struct {
	Mode            string   `toml:"mode"`
	File            string   `toml:"file"`
	Patterns        []string `toml:"patterns"`
	Markers         []string `toml:"markers"`
	FrameworkPrefix string   `toml:"framework_prefix"`
}

type Manifest struct {
	File string `toml:"file"`
}

type Scan struct {
	Extensions   []string `toml:"extensions"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Duplicates   string   `toml:"duplicates"`
	Workers      int      `toml:"workers"`
}

type Alias struct {
	Files []string `toml:"files"`
}

type Render struct {
	Format         string `toml:"format"`
	RootVariable   string `toml:"root_variable"`
	RootExpression string `toml:"root_expression"`
	ClassMapFile   string `toml:"class_map_file"`
	PrefixFile     string `toml:"prefix_file"`
	AliasFile      string `toml:"alias_file"`
}

type Generator struct {
	PackageErrors string `toml:"package_errors"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	MaxPerMinute int           `toml:"max_per_minute"`
}

type Observability struct {
	MetricsFile  string `toml:"metrics_file"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	normalize(cfg)
	return cfg
}
