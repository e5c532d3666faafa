package render

import (
	"strings"

	"autoload/internal/engine/alias"
	"autoload/internal/shared/util"
)

// PHP renders artifacts as PHP files returning array literals. Paths are
// emitted as `$root . 'relative/path'` so the table stays valid when the
// installation moves on disk.
type PHP struct {
	rootVariable   string
	rootExpression string
}

func (r *PHP) header(name string) *strings.Builder {
	var b strings.Builder
	b.WriteString("<?php\n\n")
	b.WriteString("// " + name + " @generated by autoload\n\n")
	b.WriteString("$" + r.rootVariable + " = " + r.rootExpression + ";\n\n")
	b.WriteString("return array(\n")
	return &b
}

func (r *PHP) pathCode(rel string) string {
	return "$" + r.rootVariable + " . " + quote(rel)
}

func (r *PHP) ClassMap(name string, entries map[string]string) string {
	b := r.header(name)
	for _, class := range util.SortedStringKeys(entries) {
		b.WriteString("    " + quote(class) + " => " + r.pathCode(entries[class]) + ",\n")
	}
	b.WriteString(");\n")
	return b.String()
}

func (r *PHP) Prefixes(name string, entries map[string][]string) string {
	b := r.header(name)
	for _, prefix := range util.SortedStringKeys(entries) {
		dirs := entries[prefix]
		codes := make([]string, len(dirs))
		for i, dir := range dirs {
			codes[i] = r.pathCode(dir)
		}
		b.WriteString("    " + quote(prefix) + " => array(" + strings.Join(codes, ", ") + "),\n")
	}
	b.WriteString(");\n")
	return b.String()
}

// Aliases renders the index in the nested layout produced by var_export, which
// is what the runtime alias loader has always consumed.
func (r *PHP) Aliases(_ string, m *alias.Mapping) string {
	if m == nil {
		m = alias.NewMapping()
	}
	var b strings.Builder
	b.WriteString("<?php\nreturn array (\n")

	b.WriteString("  'aliasToClassNameMapping' => \n  array (\n")
	for _, a := range util.SortedStringKeys(m.AliasToCanonical) {
		b.WriteString("    " + quote(a) + " => " + quote(m.AliasToCanonical[a]) + ",\n")
	}
	b.WriteString("  ),\n")

	b.WriteString("  'classNameToAliasMapping' => \n  array (\n")
	for _, canonical := range util.SortedStringKeys(m.CanonicalToAliases) {
		b.WriteString("    " + quote(canonical) + " => \n    array (\n")
		for _, a := range m.Aliases(canonical) {
			b.WriteString("      " + quote(a) + " => " + quote(a) + ",\n")
		}
		b.WriteString("    ),\n")
	}
	b.WriteString("  ),\n")

	b.WriteString(");\n")
	return b.String()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quote returns s as a single-quoted PHP string literal.
func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}
