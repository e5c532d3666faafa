package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/engine/paths"
	"autoload/internal/shared/util"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

// DefaultFrameworkPrefix is the install-root relative folder holding
// framework packages, which ship their own class loading information.
const DefaultFrameworkPrefix = "typo3/sysext"

var (
	DefaultPatterns = []string{"typo3/sysext/*", "typo3conf/ext/*"}
	DefaultMarkers  = []string{"composer.json", "ext_emconf.php"}
)

// IsFramework reports whether pkgPath lies under frameworkPrefix relative to
// installRoot.
func IsFramework(installRoot, frameworkPrefix, pkgPath string) bool {
	if strings.TrimSpace(frameworkPrefix) == "" {
		return false
	}
	rel, err := paths.Relativize(installRoot, pkgPath)
	if err != nil {
		return false
	}
	return util.HasPathPrefix(rel, frameworkPrefix)
}

// FileRegistry reads an ordered package list from a TOML file:
//
//	[[packages]]
//	key = "news"
//	path = "typo3conf/ext/news"
type FileRegistry struct {
	Path            string
	InstallRoot     string
	FrameworkPrefix string
}

type fileEntry struct {
	Key    string `toml:"key"`
	Path   string `toml:"path"`
	Active *bool  `toml:"active"`
}

func NewFileRegistry(path, installRoot, frameworkPrefix string) *FileRegistry {
	return &FileRegistry{Path: path, InstallRoot: installRoot, FrameworkPrefix: frameworkPrefix}
}

func (r *FileRegistry) Packages(ctx context.Context) ([]ports.Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "package registry file not found"), errors.CtxPath, r.Path)
		}
		return nil, err
	}

	var payload struct {
		Packages []fileEntry `toml:"packages"`
	}
	if _, err := toml.Decode(string(data), &payload); err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode package registry"), errors.CtxPath, r.Path)
	}

	out := make([]ports.Package, 0, len(payload.Packages))
	seen := make(map[string]bool, len(payload.Packages))
	for i, entry := range payload.Packages {
		if entry.Active != nil && !*entry.Active {
			continue
		}
		rawPath := strings.TrimSpace(entry.Path)
		if rawPath == "" {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("packages[%d].path must not be empty", i))
		}
		abs := rawPath
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(r.InstallRoot, filepath.FromSlash(rawPath))
		}
		abs = filepath.Clean(abs)
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			key = filepath.Base(abs)
		}
		if seen[key] {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("packages[%d].key %q is listed twice", i, key))
		}
		seen[key] = true
		out = append(out, ports.Package{
			Key:       key,
			Path:      abs,
			Framework: IsFramework(r.InstallRoot, r.FrameworkPrefix, abs),
		})
	}
	return out, nil
}

// DirectoryRegistry discovers packages below the install root. A directory
// matching one of Patterns is a package when it contains one of Markers.
// Order is pattern order, then lexical path order.
type DirectoryRegistry struct {
	InstallRoot     string
	FrameworkPrefix string
	patterns        []dirPattern
	markers         []string
}

type dirPattern struct {
	raw  string
	base string
	glob glob.Glob
}

func NewDirectoryRegistry(installRoot, frameworkPrefix string, patterns, markers []string) (*DirectoryRegistry, error) {
	patterns = util.TrimmedNonEmpty(patterns)
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	markers = util.TrimmedNonEmpty(markers)
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	compiled := make([]dirPattern, 0, len(patterns))
	for _, p := range patterns {
		p = util.NormalizePatternPath(p)
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("invalid package pattern %q", p))
		}
		compiled = append(compiled, dirPattern{raw: p, base: staticBase(p), glob: g})
	}
	return &DirectoryRegistry{
		InstallRoot:     installRoot,
		FrameworkPrefix: frameworkPrefix,
		patterns:        compiled,
		markers:         markers,
	}, nil
}

// staticBase is the leading part of a pattern without glob syntax.
func staticBase(pattern string) string {
	parts := strings.Split(pattern, "/")
	var base []string
	for _, part := range parts {
		if strings.ContainsAny(part, "*?[{\\") {
			break
		}
		base = append(base, part)
	}
	return strings.Join(base, "/")
}

func (r *DirectoryRegistry) Packages(ctx context.Context) ([]ports.Package, error) {
	var out []ports.Package
	seen := make(map[string]bool)
	for _, p := range r.patterns {
		start := filepath.Join(r.InstallRoot, filepath.FromSlash(p.base))
		err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) && path == start {
					return filepath.SkipDir
				}
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			// WalkDir never descends into symlinked directories, so a linked
			// package can only be matched itself.
			linked := d.Type()&fs.ModeSymlink != 0
			if linked {
				info, statErr := os.Stat(path)
				if statErr != nil || !info.IsDir() {
					return nil
				}
			} else if !d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(r.InstallRoot, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if !p.glob.Match(rel) {
				if !linked && !strings.Contains(p.raw, "**") && depth(rel) >= depth(p.raw) {
					return filepath.SkipDir
				}
				return nil
			}
			if !r.hasMarker(path) {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				out = append(out, ports.Package{
					Key:       d.Name(),
					Path:      path,
					Framework: IsFramework(r.InstallRoot, r.FrameworkPrefix, path),
				})
			}
			if linked {
				return nil
			}
			return filepath.SkipDir
		})
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "discover packages"), errors.CtxPath, start)
		}
	}
	return out, nil
}

func (r *DirectoryRegistry) hasMarker(dir string) bool {
	for _, m := range r.markers {
		if info, err := os.Stat(filepath.Join(dir, m)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func depth(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
