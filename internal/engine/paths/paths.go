// # internal/engine/paths/paths.go
package paths

import (
	"path"
	"strings"

	"autoload/internal/core/errors"
)

// Canonicalize rewrites p with forward slashes and lexical cleanup. A leading
// drive letter ("C:") is preserved. The filesystem is not consulted.
func Canonicalize(p string) string {
	s := strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if s == "" {
		return ""
	}
	volume := ""
	if hasDriveLetter(s) {
		volume, s = s[:2], s[2:]
		if s == "" {
			return volume + "/"
		}
	}
	return volume + path.Clean(s)
}

// Relativize returns p relative to root using forward slashes. It returns ""
// when p is the root itself and a PATH_OUTSIDE_ROOT error when p is not
// contained in root.
func Relativize(root, p string) (string, error) {
	canonicalRoot := Canonicalize(root)
	canonical := Canonicalize(p)
	if canonicalRoot == "" {
		return "", errors.New(errors.CodeValidationError, "install root must not be empty")
	}
	if canonical == canonicalRoot {
		return "", nil
	}
	prefix := canonicalRoot
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if !strings.HasPrefix(canonical, prefix) {
		return "", errors.PathOutsideRoot(canonicalRoot, canonical)
	}
	return canonical[len(prefix):], nil
}

// RelativizeDir is Relativize for directories: non-empty results carry a
// trailing slash so consumers can append file names directly.
func RelativizeDir(root, dir string) (string, error) {
	rel, err := Relativize(root, dir)
	if err != nil || rel == "" {
		return rel, err
	}
	return rel + "/", nil
}

// Resolve joins a root-relative path back onto root.
func Resolve(root, rel string) string {
	if strings.TrimSpace(rel) == "" {
		return Canonicalize(root)
	}
	return Canonicalize(root + "/" + rel)
}

// Within reports whether p equals root or lies beneath it.
func Within(root, p string) bool {
	_, err := Relativize(root, p)
	return err == nil
}

func hasDriveLetter(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
