package render

import (
	"bytes"
	"encoding/json"

	"autoload/internal/engine/alias"
)

// JSON renders artifacts as indented JSON documents for tooling that cannot
// execute PHP. Map keys are emitted sorted by encoding/json.
type JSON struct {
	rootVariable string
}

type jsonTable[T any] struct {
	Root    string       `json:"root"`
	Entries map[string]T `json:"entries"`
}

type jsonAliases struct {
	AliasToClassName map[string]string   `json:"aliasToClassNameMapping"`
	ClassNameToAlias map[string][]string `json:"classNameToAliasMapping"`
}

func (r *JSON) ClassMap(_ string, entries map[string]string) string {
	if entries == nil {
		entries = map[string]string{}
	}
	return encode(jsonTable[string]{Root: r.rootVariable, Entries: entries})
}

func (r *JSON) Prefixes(_ string, entries map[string][]string) string {
	if entries == nil {
		entries = map[string][]string{}
	}
	return encode(jsonTable[[]string]{Root: r.rootVariable, Entries: entries})
}

func (r *JSON) Aliases(_ string, m *alias.Mapping) string {
	if m == nil {
		m = alias.NewMapping()
	}
	doc := jsonAliases{
		AliasToClassName: m.AliasToCanonical,
		ClassNameToAlias: make(map[string][]string, len(m.CanonicalToAliases)),
	}
	for canonical := range m.CanonicalToAliases {
		doc.ClassNameToAlias[canonical] = m.Aliases(canonical)
	}
	return encode(doc)
}

func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// Only maps of strings are encoded; Encode cannot fail.
	_ = enc.Encode(v)
	return buf.String()
}
