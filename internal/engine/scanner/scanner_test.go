package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"autoload/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	if len(opts.Syntax.Extensions) == 0 {
		opts.Syntax = PHPSyntax()
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestScan_WalksTreeAndSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	widget := writeFile(t, root, "Classes/Widget.php", "<?php\nnamespace Acme\\A;\nclass Widget {}\n")
	writeFile(t, root, "Classes/Domain/Model/Item.php", "<?php\nnamespace Acme\\A\\Domain\\Model;\nclass Item {}\n")
	writeFile(t, root, "Tests/Unit/WidgetTest.php", "<?php\nclass WidgetTest {}\n")
	writeFile(t, root, "vendor/lib/Lib.php", "<?php\nclass VendorLib {}\n")
	writeFile(t, root, ".hidden/Secret.php", "<?php\nclass Secret {}\n")
	writeFile(t, root, "Resources/Private/readme.txt", "class NotSource {}")
	writeFile(t, root, "Classes/Generated.cache.php", "<?php\nclass Cached {}\n")

	s := newTestScanner(t, Options{
		ExcludeDirs:  DefaultExcludeDirs,
		ExcludeFiles: []string{"*.cache.php"},
	})
	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{`Acme\A\Domain\Model\Item`, `Acme\A\Widget`}, names(decls))
	assert.Equal(t, widget, decls[1].File)
}

func TestScan_PathPatternExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Classes/Keep.php", "<?php class Keep {}")
	writeFile(t, root, "Configuration/Legacy/Drop.php", "<?php class Drop {}")
	writeFile(t, root, "Other/Legacy/Stay.php", "<?php class Stay {}")

	s := newTestScanner(t, Options{ExcludeDirs: []string{"Configuration/Legacy"}})
	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep", "Stay"}, names(decls))
}

func TestScan_RootNameMatchingExcludeIsStillScanned(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "tests")
	writeFile(t, root, "Thing.php", "<?php class Thing {}")

	s := newTestScanner(t, Options{ExcludeDirs: DefaultExcludeDirs})
	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thing"}, names(decls))
}

func TestScan_DuplicateAcrossFilesIsError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/Foo.php", "<?php namespace X; class Foo {}")
	writeFile(t, root, "b/Foo.php", "<?php namespace X; class Foo {}")

	s := newTestScanner(t, Options{})
	_, err := s.Scan(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDuplicateClass), "got %v", err)
}

func TestScan_DuplicateWarnKeepsFirstFile(t *testing.T) {
	root := t.TempDir()
	first := writeFile(t, root, "a/Foo.php", "<?php namespace X; class Foo {}")
	writeFile(t, root, "b/Foo.php", "<?php namespace X; class Foo {}")

	s := newTestScanner(t, Options{Duplicates: DuplicatesWarn})
	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, first, decls[0].File)
}

func TestScan_ConditionalDefinitionInOneFileIsNotDuplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Compat.php", "<?php if (true) { class Compat {} } else { class Compat {} }")

	s := newTestScanner(t, Options{})
	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Compat"}, names(decls))
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "A.php", "<?php class A {}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScanner(t, Options{})
	_, err := s.Scan(ctx, root)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = New(Options{Syntax: PHPSyntax(), Duplicates: "ignore"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestFiles_ExtensionFilterIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	upper := writeFile(t, root, "Legacy.PHP", "<?php class Legacy {}")
	writeFile(t, root, "notes.md", "# class Nope")

	s := newTestScanner(t, Options{})
	files, err := s.Files(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{upper}, files)
}

func TestFiles_SymlinkedRootKeepsLogicalPaths(t *testing.T) {
	target := t.TempDir()
	writeFile(t, target, "Classes/Item.php", "<?php\nnamespace Acme\\News;\nclass Item {}\n")
	writeFile(t, target, "Tests/ItemTest.php", "<?php\nclass ItemTest {}\n")

	root := filepath.Join(t.TempDir(), "news")
	if err := os.Symlink(target, root); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s := newTestScanner(t, Options{ExcludeDirs: DefaultExcludeDirs})
	files, err := s.Files(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "Classes", "Item.php")}, files)

	decls, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, `Acme\News\Item`, decls[0].Name)
	assert.Equal(t, filepath.Join(root, "Classes", "Item.php"), decls[0].File)
}
