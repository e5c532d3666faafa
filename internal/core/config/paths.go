package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvedPaths are the absolute locations derived from a Config.
type ResolvedPaths struct {
	InstallRoot  string
	OutputDir    string
	RegistryFile string
	HistoryPath  string
	MetricsFile  string
}

// ResolvePaths anchors the install root at cwd and every other path at the
// install root.
func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}
	absCWD, err := filepath.Abs(cwd)
	if err != nil {
		return ResolvedPaths{}, fmt.Errorf("resolve cwd %q: %w", cwd, err)
	}

	installRoot := ResolveRelative(absCWD, cfg.Paths.InstallRoot)
	resolved := ResolvedPaths{
		InstallRoot:  installRoot,
		OutputDir:    ResolveRelative(installRoot, cfg.Paths.OutputDir),
		RegistryFile: ResolveRelative(installRoot, cfg.Registry.File),
		HistoryPath:  ResolveRelative(installRoot, cfg.History.Path),
	}
	if cfg.Observability.MetricsFile != "" {
		resolved.MetricsFile = ResolveRelative(installRoot, cfg.Observability.MetricsFile)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
