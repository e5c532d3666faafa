// # internal/engine/scanner/scanner.go
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoload/internal/core/errors"
	"autoload/internal/shared/util"

	"github.com/gobwas/glob"
)

const (
	DuplicatesError = "error"
	DuplicatesWarn  = "warn"
)

// DefaultExcludeDirs are directory names conventionally not autoloaded.
var DefaultExcludeDirs = []string{"Tests", "tests", "vendor", "node_modules", ".*"}

type Options struct {
	Syntax       Syntax
	ExcludeDirs  []string
	ExcludeFiles []string
	// Duplicates is DuplicatesError or DuplicatesWarn.
	Duplicates string
}

type Scanner struct {
	syntax     Syntax
	lexer      *lexer
	dirGlobs   []pattern
	fileGlobs  []pattern
	duplicates string
}

type pattern struct {
	glob     glob.Glob
	withPath bool
}

func New(opts Options) (*Scanner, error) {
	if len(opts.Syntax.Extensions) == 0 {
		return nil, errors.New(errors.CodeValidationError, "scanner syntax must declare at least one file extension")
	}
	dirGlobs, err := compilePatterns(opts.ExcludeDirs)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	fileGlobs, err := compilePatterns(opts.ExcludeFiles)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}

	duplicates := strings.ToLower(strings.TrimSpace(opts.Duplicates))
	switch duplicates {
	case "":
		duplicates = DuplicatesError
	case DuplicatesError, DuplicatesWarn:
	default:
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown duplicates policy %q", opts.Duplicates))
	}

	return &Scanner{
		syntax:     opts.Syntax,
		lexer:      newLexer(opts.Syntax),
		dirGlobs:   dirGlobs,
		fileGlobs:  fileGlobs,
		duplicates: duplicates,
	}, nil
}

func compilePatterns(raw []string) ([]pattern, error) {
	out := make([]pattern, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		withPath := util.ContainsPathSeparator(p)
		if withPath {
			p = util.NormalizePatternPath(p)
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, pattern{glob: g, withPath: withPath})
	}
	return out, nil
}

func matchAny(patterns []pattern, base, rel string) bool {
	for _, p := range patterns {
		if p.withPath {
			if p.glob.Match(rel) {
				return true
			}
			continue
		}
		if p.glob.Match(base) {
			return true
		}
	}
	return false
}

// Files lists the source files under root that are subject to scanning, in
// lexical walk order. A symlinked root is walked through its target, but the
// returned paths stay below root.
func (s *Scanner) Files(ctx context.Context, root string) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == resolved {
			return nil
		}

		rel, relErr := filepath.Rel(resolved, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		base := d.Name()

		if d.IsDir() {
			if matchAny(s.dirGlobs, base, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.syntax.hasExtension(base) {
			return nil
		}
		if matchAny(s.fileGlobs, base, rel) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil || info.IsDir() {
				return nil
			}
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Scan returns every type declared under root, sorted by name. Within a
// package each name must map to a single file.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Declaration, error) {
	files, err := s.Files(ctx, root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "walk package tree"), errors.CtxPath, root)
	}

	byName := make(map[string]Declaration)
	for _, file := range files {
		decls, err := s.ScanFile(file)
		if err != nil {
			return nil, err
		}
		for _, decl := range decls {
			existing, seen := byName[decl.Name]
			if !seen {
				byName[decl.Name] = decl
				continue
			}
			if existing.File == decl.File {
				continue
			}
			if s.duplicates == DuplicatesWarn {
				slog.Warn("duplicate class definition", "class", decl.Name, "kept", existing.File, "ignored", decl.File)
				continue
			}
			return nil, errors.DuplicateClass(decl.Name, existing.File, decl.File)
		}
	}

	out := make([]Declaration, 0, len(byName))
	for _, decl := range byName {
		out = append(out, decl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ScanFile lexes a single file.
func (s *Scanner) ScanFile(path string) ([]Declaration, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read source file"), errors.CtxPath, path)
	}
	return s.Parse(path, src), nil
}

// Parse extracts declarations from src; path is recorded on each result.
func (s *Scanner) Parse(path string, src []byte) []Declaration {
	decls := parseDeclarations(s.syntax, s.lexer.tokenize(src))
	for i := range decls {
		decls[i].File = path
	}
	return decls
}
