// # internal/engine/manifest/manifest.go
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoload/internal/core/errors"
)

const DefaultFileName = "composer.json"

// ErrNotFound is returned (wrapped) when a package has no manifest file.
var ErrNotFound = errors.New(errors.CodeNotFound, "package manifest not found")

type Manifest struct {
	Name     string
	Path     string
	Autoload Autoload
}

type Autoload struct {
	// PSR4 maps a namespace prefix to the package-relative directories that
	// hold it, in declaration order.
	PSR4 map[string][]string
}

// NamespaceDir is one prefix/directory pair with an absolute directory.
type NamespaceDir struct {
	Prefix string
	Dir    string
}

type rawManifest struct {
	Name     string `json:"name"`
	Autoload struct {
		PSR4 map[string]json.RawMessage `json:"psr-4"`
	} `json:"autoload"`
}

type Reader struct {
	FileName string
}

func NewReader(fileName string) *Reader {
	if strings.TrimSpace(fileName) == "" {
		fileName = DefaultFileName
	}
	return &Reader{FileName: fileName}
}

// Read loads the manifest of the package rooted at packagePath. A missing file
// yields an error matching ErrNotFound; undecodable content yields a
// MANIFEST_PARSE_ERROR.
func (r *Reader) Read(packagePath string) (*Manifest, error) {
	path := filepath.Join(packagePath, r.FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "read package manifest")
	}
	return Parse(path, data)
}

// Parse decodes manifest content. path is only used for error context.
func Parse(path string, data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.ManifestParse(path, err)
	}

	m := &Manifest{
		Name:     strings.TrimSpace(raw.Name),
		Path:     path,
		Autoload: Autoload{PSR4: make(map[string][]string, len(raw.Autoload.PSR4))},
	}
	for prefix, value := range raw.Autoload.PSR4 {
		dirs, err := decodeDirs(value)
		if err != nil {
			return nil, errors.ManifestParse(path, fmt.Errorf("autoload.psr-4[%q]: %w", prefix, err))
		}
		m.Autoload.PSR4[prefix] = dirs
	}
	return m, nil
}

// decodeDirs accepts a directory string or an array of them. null is an
// error, both as the value and as an array element.
func decodeDirs(value json.RawMessage) ([]string, error) {
	var decoded any
	if err := json.Unmarshal(value, &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case string:
		return []string{normalizeDir(v)}, nil
	case []any:
		dirs := make([]string, 0, len(v))
		for i, item := range v {
			dir, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected a directory string, got %s", i, jsonKind(item))
			}
			dirs = append(dirs, normalizeDir(dir))
		}
		return dirs, nil
	default:
		return nil, fmt.Errorf("expected a directory string or an array of strings, got %s", jsonKind(decoded))
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func normalizeDir(dir string) string {
	dir = strings.TrimSpace(strings.ReplaceAll(dir, "\\", "/"))
	if dir == "" || dir == "." {
		return "./"
	}
	return dir
}

// NamespaceDirs returns the manifest's prefixes joined onto packagePath,
// ordered by prefix and then declaration order.
func (m *Manifest) NamespaceDirs(packagePath string) []NamespaceDir {
	if m == nil {
		return nil
	}
	prefixes := make([]string, 0, len(m.Autoload.PSR4))
	for prefix := range m.Autoload.PSR4 {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	out := make([]NamespaceDir, 0, len(prefixes))
	for _, prefix := range prefixes {
		for _, dir := range m.Autoload.PSR4[prefix] {
			out = append(out, NamespaceDir{
				Prefix: prefix,
				Dir:    filepath.Join(packagePath, filepath.FromSlash(dir)),
			})
		}
	}
	return out
}
