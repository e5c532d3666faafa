package scanner

import "strings"

// Declaration is one named type found in a source file.
type Declaration struct {
	Name string
	Kind string
	File string
	Line int
}

// parseDeclarations walks the token stream and returns declared types in
// source order, qualified by the namespace in effect.
func parseDeclarations(syntax Syntax, tokens []token) []Declaration {
	var out []Declaration
	namespace := ""
	prev := token{code: semicolonToken}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.code != wordToken || blocksKeyword(syntax, prev) {
			prev = tok
			continue
		}

		if syntax.isKeyword(tok.text, syntax.NamespaceKeyword) && i+1 < len(tokens) {
			next := tokens[i+1]
			switch next.code {
			case wordToken:
				namespace = strings.Trim(next.text, syntax.Separator)
				i++
				prev = next
				continue
			case openBraceToken:
				namespace = ""
			}
			prev = tok
			continue
		}

		if kind, ok := syntax.isTypeKeyword(tok.text); ok && i+1 < len(tokens) {
			next := tokens[i+1]
			if next.code == wordToken && isPlainName(syntax, next.text) {
				out = append(out, Declaration{
					Name: qualify(syntax, namespace, next.text),
					Kind: kind,
					Line: next.line,
				})
				i++
				prev = next
				continue
			}
		}
		prev = tok
	}
	return out
}

func blocksKeyword(syntax Syntax, prev token) bool {
	switch prev.code {
	case operatorToken:
		return true
	case wordToken:
		return syntax.isDisqualifying(prev.text)
	}
	return false
}

func isPlainName(syntax Syntax, name string) bool {
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return false
	}
	if syntax.Separator != "" && strings.Contains(name, syntax.Separator) {
		return false
	}
	return !syntax.reserved(name)
}

func qualify(syntax Syntax, namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + syntax.Separator + name
}
