package scanner

import "strings"

// Syntax describes the declaration grammar the lexer recognises. Only what
// is needed to find namespace and type declarations is modelled.
type Syntax struct {
	Name       string
	Extensions []string

	// CodeOpen/CodeClose delimit code regions inside a file. When CodeOpen is
	// empty the whole file is code.
	CodeOpen  []string
	CodeClose string

	NamespaceKeyword string
	Separator        string
	TypeKeywords     []string

	// Words that, directly before a type keyword, mean the keyword does not
	// start a named declaration ("new class", "function enum").
	DisqualifyingWords []string
	// Operators that turn a following keyword into a member name ("Foo::class").
	MemberOperators []string

	LineComments []string
	// Prefixes that look like a line comment but are not ("#[" attributes).
	LineCommentExceptions []string
	BlockComments         [][2]string
	Quotes                []byte
	Escape                byte
	HeredocMarker         string
	VariablePrefix        byte

	CaseInsensitiveKeywords bool
}

// PHPSyntax returns the declaration grammar of PHP source files.
func PHPSyntax() Syntax {
	return Syntax{
		Name:                    "php",
		Extensions:              []string{".php", ".inc"},
		CodeOpen:                []string{"<?php", "<?=", "<?"},
		CodeClose:               "?>",
		NamespaceKeyword:        "namespace",
		Separator:               `\`,
		TypeKeywords:            []string{"class", "interface", "trait", "enum"},
		DisqualifyingWords:      []string{"new", "function", "const", "instanceof"},
		MemberOperators:         []string{"?->", "->", "::"},
		LineComments:            []string{"//", "#"},
		LineCommentExceptions:   []string{"#["},
		BlockComments:           [][2]string{{"/*", "*/"}},
		Quotes:                  []byte{'\'', '"', '`'},
		Escape:                  '\\',
		HeredocMarker:           "<<<",
		VariablePrefix:          '$',
		CaseInsensitiveKeywords: true,
	}
}

func (s Syntax) isKeyword(word, keyword string) bool {
	if keyword == "" {
		return false
	}
	if s.CaseInsensitiveKeywords {
		return strings.EqualFold(word, keyword)
	}
	return word == keyword
}

func (s Syntax) isTypeKeyword(word string) (string, bool) {
	for _, kw := range s.TypeKeywords {
		if s.isKeyword(word, kw) {
			return strings.ToLower(kw), true
		}
	}
	return "", false
}

func (s Syntax) isDisqualifying(word string) bool {
	for _, kw := range s.DisqualifyingWords {
		if s.isKeyword(word, kw) {
			return true
		}
	}
	return false
}

func (s Syntax) reserved(word string) bool {
	if s.isKeyword(word, s.NamespaceKeyword) {
		return true
	}
	if _, ok := s.isTypeKeyword(word); ok {
		return true
	}
	for _, kw := range []string{"extends", "implements"} {
		if s.isKeyword(word, kw) {
			return true
		}
	}
	return false
}

func (s Syntax) hasExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range s.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
