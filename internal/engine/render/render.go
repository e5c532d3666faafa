// # internal/engine/render/render.go
package render

import (
	"fmt"
	"strings"

	"autoload/internal/core/errors"
	"autoload/internal/engine/alias"
)

const (
	FormatPHP  = "php"
	FormatJSON = "json"
)

// Renderer turns sorted lookup tables into artifact text. Implementations are
// pure: identical input yields byte-identical output.
type Renderer interface {
	// ClassMap renders class name → root-relative file.
	ClassMap(name string, entries map[string]string) string
	// Prefixes renders namespace prefix → root-relative directories.
	Prefixes(name string, entries map[string][]string) string
	// Aliases renders both directions of the alias index.
	Aliases(name string, m *alias.Mapping) string
}

type Options struct {
	Format string
	// RootVariable names the variable holding the install root at load time.
	RootVariable string
	// RootExpression is assigned to RootVariable in the artifact header.
	RootExpression string
}

func DefaultOptions() Options {
	return Options{
		Format:         FormatPHP,
		RootVariable:   "typo3InstallDir",
		RootExpression: "PATH_site",
	}
}

// FileNames are the artifact names used when none are configured.
type FileNames struct {
	ClassMap string
	Prefixes string
	Aliases  string
}

func DefaultFileNames(format string) FileNames {
	ext := ".php"
	if strings.EqualFold(format, FormatJSON) {
		ext = ".json"
	}
	return FileNames{
		ClassMap: "autoload_classmap" + ext,
		Prefixes: "autoload_psr4" + ext,
		Aliases:  "autoload_classaliasmap" + ext,
	}
}

func New(opts Options) (Renderer, error) {
	defaults := DefaultOptions()
	if strings.TrimSpace(opts.RootVariable) == "" {
		opts.RootVariable = defaults.RootVariable
	}
	if strings.TrimSpace(opts.RootExpression) == "" {
		opts.RootExpression = defaults.RootExpression
	}
	opts.RootVariable = strings.TrimPrefix(strings.TrimSpace(opts.RootVariable), "$")
	if !validIdentifier(opts.RootVariable) {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("root variable %q is not a valid identifier", opts.RootVariable))
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatPHP:
		return &PHP{rootVariable: opts.RootVariable, rootExpression: opts.RootExpression}, nil
	case FormatJSON:
		return &JSON{rootVariable: opts.RootVariable}, nil
	default:
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown render format %q", opts.Format))
	}
}

func validIdentifier(s string) bool {
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
