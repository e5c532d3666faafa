package render

import (
	"encoding/json"
	"testing"

	"autoload/internal/core/errors"
	"autoload/internal/engine/alias"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPHP(t *testing.T) Renderer {
	t.Helper()
	r, err := New(DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestPHP_ClassMap(t *testing.T) {
	got := newPHP(t).ClassMap("autoload_classmap.php", map[string]string{
		`Acme\B\Gadget`: "typo3conf/ext/pkg-b/classes/Gadget.php",
		`Acme\A\Widget`: "typo3conf/ext/pkg-a/src/Widget.php",
	})
	want := "<?php\n\n" +
		"// autoload_classmap.php @generated by autoload\n\n" +
		"$typo3InstallDir = PATH_site;\n\n" +
		"return array(\n" +
		"    'Acme\\\\A\\\\Widget' => $typo3InstallDir . 'typo3conf/ext/pkg-a/src/Widget.php',\n" +
		"    'Acme\\\\B\\\\Gadget' => $typo3InstallDir . 'typo3conf/ext/pkg-b/classes/Gadget.php',\n" +
		");\n"
	assert.Equal(t, want, got)
}

func TestPHP_Prefixes(t *testing.T) {
	got := newPHP(t).Prefixes("autoload_psr4.php", map[string][]string{
		`Acme\A\`: {"pkg-a/src/", "pkg-a/lib/"},
	})
	assert.Contains(t, got, "// autoload_psr4.php @generated by autoload\n")
	assert.Contains(t, got,
		"    'Acme\\\\A\\\\' => array($typo3InstallDir . 'pkg-a/src/', $typo3InstallDir . 'pkg-a/lib/'),\n")
}

func TestPHP_EmptyTables(t *testing.T) {
	got := newPHP(t).ClassMap("x.php", nil)
	assert.Equal(t, "<?php\n\n// x.php @generated by autoload\n\n$typo3InstallDir = PATH_site;\n\nreturn array(\n);\n", got)
}

func TestPHP_QuoteEscaping(t *testing.T) {
	assert.Equal(t, `'it\'s'`, quote("it's"))
	assert.Equal(t, `'a\\b'`, quote(`a\b`))
}

func TestPHP_Aliases(t *testing.T) {
	m := alias.NewMapping()
	m.Add(`Old\ClassName`, `New\ClassName`)
	m.Add(`Older\ClassName`, `New\ClassName`)

	got := newPHP(t).Aliases("autoload_classaliasmap.php", m)
	want := "<?php\nreturn array (\n" +
		"  'aliasToClassNameMapping' => \n  array (\n" +
		"    'old\\\\classname' => 'New\\\\ClassName',\n" +
		"    'older\\\\classname' => 'New\\\\ClassName',\n" +
		"  ),\n" +
		"  'classNameToAliasMapping' => \n  array (\n" +
		"    'New\\\\ClassName' => \n    array (\n" +
		"      'old\\\\classname' => 'old\\\\classname',\n" +
		"      'older\\\\classname' => 'older\\\\classname',\n" +
		"    ),\n" +
		"  ),\n" +
		");\n"
	assert.Equal(t, want, got)
}

func TestPHP_CustomRootVariable(t *testing.T) {
	r, err := New(Options{RootVariable: "$appRoot", RootExpression: "__DIR__ . '/../'"})
	require.NoError(t, err)
	got := r.ClassMap("m.php", map[string]string{"A": "a.php"})
	assert.Contains(t, got, "$appRoot = __DIR__ . '/../';\n")
	assert.Contains(t, got, "    'A' => $appRoot . 'a.php',\n")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	_, err = New(Options{RootVariable: "1bad"})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestJSON_Tables(t *testing.T) {
	r, err := New(Options{Format: "JSON"})
	require.NoError(t, err)

	var classMap struct {
		Root    string            `json:"root"`
		Entries map[string]string `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.ClassMap("", map[string]string{`A\B`: "x/B.php"})), &classMap))
	assert.Equal(t, "typo3InstallDir", classMap.Root)
	assert.Equal(t, map[string]string{`A\B`: "x/B.php"}, classMap.Entries)

	m := alias.NewMapping()
	m.Add(`Old\X`, `New\X`)
	var aliases map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Aliases("", m)), &aliases))
	assert.Equal(t, `New\X`, aliases["aliasToClassNameMapping"][`old\x`])
	assert.Equal(t, []any{`old\x`}, aliases["classNameToAliasMapping"][`New\X`])
}

func TestRender_Deterministic(t *testing.T) {
	entries := map[string]string{}
	for _, c := range []string{"Z", "M", "A", "Q", "B"} {
		entries[c] = c + ".php"
	}
	for _, format := range []string{FormatPHP, FormatJSON} {
		r, err := New(Options{Format: format})
		require.NoError(t, err)
		first := r.ClassMap("f", entries)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, r.ClassMap("f", entries))
		}
	}
}

func TestDefaultFileNames(t *testing.T) {
	assert.Equal(t, "autoload_classmap.php", DefaultFileNames(FormatPHP).ClassMap)
	assert.Equal(t, "autoload_psr4.json", DefaultFileNames(FormatJSON).Prefixes)
}
