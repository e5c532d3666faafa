package artifacts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"autoload/internal/core/errors"
	"autoload/internal/core/ports"
	"autoload/internal/shared/observability"
)

type Writer struct {
	Dir  string
	Perm os.FileMode
}

func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Perm: 0o644}
}

// Write replaces Dir/name with content via a temp file and rename. It reports
// false without touching the file when the content is already current.
func (w *Writer) Write(name, content string) (bool, error) {
	if name == "" || filepath.IsAbs(name) || filepath.Base(name) != name {
		return false, errors.New(errors.CodeValidationError, fmt.Sprintf("artifact name %q must be a plain file name", name))
	}
	target := filepath.Join(w.Dir, name)
	if existing, err := os.ReadFile(target); err == nil && bytes.Equal(existing, []byte(content)) {
		observability.ArtifactWritesTotal.WithLabelValues("unchanged").Inc()
		return false, nil
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "create output directory"), errors.CtxPath, w.Dir)
	}
	tmp, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "create temp artifact"), errors.CtxPath, target)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "write temp artifact"), errors.CtxPath, target)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "sync temp artifact"), errors.CtxPath, target)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "close temp artifact"), errors.CtxPath, target)
	}
	if err := os.Chmod(tmpName, w.perm()); err != nil {
		cleanup()
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "chmod temp artifact"), errors.CtxPath, target)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return false, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "replace artifact"), errors.CtxPath, target)
	}
	observability.ArtifactWritesTotal.WithLabelValues("written").Inc()
	return true, nil
}

// WriteAll writes every artifact and returns the paths that changed. Names
// are validated up front so an invalid set writes nothing.
func (w *Writer) WriteAll(list []ports.Artifact) ([]string, error) {
	for _, a := range list {
		if a.Name == "" || filepath.Base(a.Name) != a.Name {
			return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("artifact name %q must be a plain file name", a.Name))
		}
	}
	var written []string
	for _, a := range list {
		changed, err := w.Write(a.Name, a.Content)
		if err != nil {
			return written, err
		}
		if changed {
			written = append(written, filepath.Join(w.Dir, a.Name))
		}
	}
	return written, nil
}

func (w *Writer) perm() os.FileMode {
	if w.Perm == 0 {
		return 0o644
	}
	return w.Perm
}
