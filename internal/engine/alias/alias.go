// # internal/engine/alias/alias.go
package alias

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/shared/util"

	"gopkg.in/yaml.v3"
)

// DefaultFiles are the package-relative locations probed for an alias file.
// The first one that exists wins.
var DefaultFiles = []string{
	"Migrations/Code/ClassAliasMap.yaml",
	"Migrations/Code/ClassAliasMap.json",
}

// Mapping is the alias index. Every key of AliasToCanonical is a member of
// exactly one set in CanonicalToAliases, the one under its canonical name.
type Mapping struct {
	AliasToCanonical   map[string]string
	CanonicalToAliases map[string]map[string]struct{}
}

func NewMapping() *Mapping {
	return &Mapping{
		AliasToCanonical:   make(map[string]string),
		CanonicalToAliases: make(map[string]map[string]struct{}),
	}
}

// Add registers alias for canonical. The alias is lower-cased (ASCII letters
// only); re-registering it under a different canonical moves it.
func (m *Mapping) Add(alias, canonical string) {
	key := lowerASCII(alias)
	if prev, ok := m.AliasToCanonical[key]; ok && prev != canonical {
		set := m.CanonicalToAliases[prev]
		delete(set, key)
		if len(set) == 0 {
			delete(m.CanonicalToAliases, prev)
		}
	}
	m.AliasToCanonical[key] = canonical
	set, ok := m.CanonicalToAliases[canonical]
	if !ok {
		set = make(map[string]struct{})
		m.CanonicalToAliases[canonical] = set
	}
	set[key] = struct{}{}
}

// Merge folds other into m in order.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	for _, alias := range util.SortedStringKeys(other.AliasToCanonical) {
		m.Add(alias, other.AliasToCanonical[alias])
	}
}

// Resolve looks up an alias case-insensitively.
func (m *Mapping) Resolve(alias string) (string, bool) {
	canonical, ok := m.AliasToCanonical[lowerASCII(alias)]
	return canonical, ok
}

// Aliases returns the sorted aliases of canonical.
func (m *Mapping) Aliases(canonical string) []string {
	set := m.CanonicalToAliases[canonical]
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (m *Mapping) Len() int {
	return len(m.AliasToCanonical)
}

// lowerASCII folds A-Z only, so multibyte class names keep their bytes.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

type Builder struct {
	files []string
	skip  bool
}

// NewBuilder returns a builder probing files, relative to each package root.
// With skipInvalid, a malformed alias file is logged and that package is
// ignored instead of failing the build.
func NewBuilder(files []string, skipInvalid bool) *Builder {
	if len(files) == 0 {
		files = DefaultFiles
	}
	return &Builder{files: append([]string(nil), files...), skip: skipInvalid}
}

// Build merges the alias files of packages in enumeration order.
func (b *Builder) Build(ctx context.Context, packages []ports.Package) (*Mapping, error) {
	out := NewMapping()
	for _, pkg := range packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := b.ForPackage(pkg)
		if err != nil {
			if b.skip && errors.IsCode(err, errors.CodeAliasFormat) {
				slog.Warn("skipping invalid class alias map", "package", pkg.Key, "error", err)
				continue
			}
			return nil, errors.AddContext(err, errors.CtxPackage, pkg.Key)
		}
		out.Merge(m)
	}
	return out, nil
}

// ForPackage loads the alias file of a single package. A package without one
// yields an empty mapping.
func (b *Builder) ForPackage(pkg ports.Package) (*Mapping, error) {
	for _, rel := range b.files {
		path := filepath.Join(pkg.Path, filepath.FromSlash(rel))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read class alias map"), errors.CtxPath, path)
		}
		return Parse(path, data)
	}
	return NewMapping(), nil
}

// Parse decodes a flat alias → canonical mapping. Files ending in .json are
// read as JSON, anything else as YAML. Both sides of every entry must be
// strings.
func Parse(path string, data []byte) (*Mapping, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(path, data)
	}
	return parseYAML(path, data)
}

func parseJSON(path string, data []byte) (*Mapping, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.AliasFormat(path, "document is empty")
	}
	if trimmed[0] != '{' {
		return nil, errors.AliasFormat(path, "top level must be an object")
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, errors.AliasFormat(path, err.Error())
	}

	m := NewMapping()
	for _, key := range util.SortedStringKeys(raw) {
		value := bytes.TrimSpace(raw[key])
		if len(value) == 0 || value[0] != '"' {
			return nil, errors.AliasFormat(path, fmt.Sprintf("entry %q: value must be a class name string", key))
		}
		var canonical string
		if err := json.Unmarshal(value, &canonical); err != nil {
			return nil, errors.AliasFormat(path, fmt.Sprintf("entry %q: %v", key, err))
		}
		if err := add(m, key, canonical); err != nil {
			return nil, errors.AliasFormat(path, fmt.Sprintf("entry %q: %v", key, err))
		}
	}
	return m, nil
}

func parseYAML(path string, data []byte) (*Mapping, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.AliasFormat(path, err.Error())
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.AliasFormat(path, "document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.AliasFormat(path, fmt.Sprintf("top level is a %s", kindName(root.Kind)))
	}

	m := NewMapping()
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, errors.AliasFormat(path, fmt.Sprintf("line %d: entries must map a class name to a class name", k.Line))
		}
		// Resolved tags reject null, numbers, booleans and !!binary.
		if k.ShortTag() != "!!str" || v.ShortTag() != "!!str" {
			return nil, errors.AliasFormat(path, fmt.Sprintf("line %d: class names must be strings", k.Line))
		}
		if err := add(m, k.Value, v.Value); err != nil {
			return nil, errors.AliasFormat(path, fmt.Sprintf("line %d: %v", k.Line, err))
		}
	}
	return m, nil
}

func add(m *Mapping, alias, canonical string) error {
	alias = strings.TrimSpace(alias)
	canonical = strings.TrimSpace(canonical)
	if alias == "" || canonical == "" {
		return fmt.Errorf("empty class name")
	}
	m.Add(alias, canonical)
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "yaml alias"
	default:
		return "non-mapping node"
	}
}
