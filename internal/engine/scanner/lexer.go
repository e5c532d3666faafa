package scanner

import (
	"bytes"
	"sort"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

const (
	whitespaceToken int = iota
	commentToken
	stringToken
	heredocToken
	variableToken
	operatorToken
	codeCloseToken
	openBraceToken
	closeBraceToken
	semicolonToken
	wordToken
	anyToken
)

type token struct {
	code int
	text string
	line int
}

// lexer turns source into the small token stream the declaration parser
// needs. Comments are dropped; strings, heredocs and variables are kept as
// opaque tokens so they still separate keywords from names.
type lexer struct {
	syntax     Syntax
	whitespace *parsly.Token
	candidates []*parsly.Token
}

func newLexer(syntax Syntax) *lexer {
	l := &lexer{
		syntax:     syntax,
		whitespace: parsly.NewToken(whitespaceToken, "Whitespace", matcher.NewWhiteSpace()),
	}

	for _, block := range syntax.BlockComments {
		l.candidates = append(l.candidates, parsly.NewToken(commentToken, "Comment", &blockComment{begin: []byte(block[0]), end: []byte(block[1])}))
	}
	if len(syntax.LineComments) > 0 {
		lc := &lineComment{stop: []byte(syntax.CodeClose)}
		for _, start := range syntax.LineComments {
			lc.starts = append(lc.starts, []byte(start))
		}
		for _, exception := range syntax.LineCommentExceptions {
			lc.exceptions = append(lc.exceptions, []byte(exception))
		}
		l.candidates = append(l.candidates, parsly.NewToken(commentToken, "LineComment", lc))
	}
	if syntax.HeredocMarker != "" {
		l.candidates = append(l.candidates, parsly.NewToken(heredocToken, "Heredoc", &heredoc{marker: []byte(syntax.HeredocMarker)}))
	}
	if len(syntax.Quotes) > 0 {
		l.candidates = append(l.candidates, parsly.NewToken(stringToken, "String", &quoted{quotes: syntax.Quotes, escape: syntax.Escape}))
	}
	if syntax.VariablePrefix != 0 {
		l.candidates = append(l.candidates, parsly.NewToken(variableToken, "Variable", &variable{prefix: syntax.VariablePrefix}))
	}
	if syntax.CodeClose != "" {
		l.candidates = append(l.candidates, parsly.NewToken(codeCloseToken, "CodeClose", matcher.NewFragment(syntax.CodeClose)))
	}
	if len(syntax.MemberOperators) > 0 {
		ops := make([][]byte, 0, len(syntax.MemberOperators))
		for _, op := range syntax.MemberOperators {
			ops = append(ops, []byte(op))
		}
		l.candidates = append(l.candidates, parsly.NewToken(operatorToken, "MemberOperator", matcher.NewFragments(ops...)))
	}

	var separator byte
	if len(syntax.Separator) == 1 {
		separator = syntax.Separator[0]
	}
	l.candidates = append(l.candidates,
		parsly.NewToken(openBraceToken, "{", matcher.NewByte('{')),
		parsly.NewToken(closeBraceToken, "}", matcher.NewByte('}')),
		parsly.NewToken(semicolonToken, ";", matcher.NewByte(';')),
		parsly.NewToken(wordToken, "Word", &word{separator: separator}),
		parsly.NewToken(anyToken, "Any", &anyByte{}),
	)
	return l
}

func (l *lexer) tokenize(src []byte) []token {
	var out []token
	lines := newLineIndex(src)
	cursor := parsly.NewCursor("", src, 0)
	inCode := len(l.syntax.CodeOpen) == 0

	for cursor.Pos < cursor.InputSize {
		if !inCode {
			idx, size := l.nextCodeOpen(src, cursor.Pos)
			if idx < 0 {
				break
			}
			cursor.Pos = idx + size
			inCode = true
			continue
		}

		matched := cursor.MatchAfterOptional(l.whitespace, l.candidates...)
		switch matched.Code {
		case parsly.EOF:
			return out
		case parsly.Invalid:
			cursor.Pos++
			continue
		case commentToken:
			continue
		case codeCloseToken:
			inCode = false
			out = append(out, token{code: semicolonToken, text: ";", line: lines.at(cursor.Pos)})
			continue
		}
		text := matched.Text(cursor)
		out = append(out, token{code: matched.Code, text: text, line: lines.at(cursor.Pos - len(text))})
	}
	return out
}

// nextCodeOpen finds the earliest code-open tag at or after pos. Longer tags
// win when several start at the same offset.
func (l *lexer) nextCodeOpen(src []byte, pos int) (int, int) {
	best, size := -1, 0
	for _, open := range l.syntax.CodeOpen {
		idx := bytes.Index(src[pos:], []byte(open))
		if idx < 0 {
			continue
		}
		idx += pos
		if best == -1 || idx < best || (idx == best && len(open) > size) {
			best, size = idx, len(open)
		}
	}
	return best, size
}

type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	var idx lineIndex
	for i, b := range src {
		if b == '\n' {
			idx = append(idx, i)
		}
	}
	return idx
}

// at returns the 1-based line of offset.
func (l lineIndex) at(offset int) int {
	return sort.SearchInts(l, offset) + 1
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

type word struct {
	separator byte
}

func (w *word) Match(cursor *parsly.Cursor) (matched int) {
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		b := cursor.Input[i]
		if isWordByte(b) || (w.separator != 0 && b == w.separator) {
			matched++
			continue
		}
		return matched
	}
	return matched
}

type anyByte struct{}

func (a *anyByte) Match(cursor *parsly.Cursor) int {
	if cursor.Pos < cursor.InputSize {
		return 1
	}
	return 0
}

type variable struct {
	prefix byte
}

func (v *variable) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || cursor.Input[cursor.Pos] != v.prefix {
		return 0
	}
	matched := 1
	for i := cursor.Pos + 1; i < cursor.InputSize && isWordByte(cursor.Input[i]); i++ {
		matched++
	}
	if matched == 1 {
		return 0
	}
	return matched
}

type blockComment struct {
	begin, end []byte
}

func (c *blockComment) Match(cursor *parsly.Cursor) int {
	input := cursor.Input[cursor.Pos:cursor.InputSize]
	if !bytes.HasPrefix(input, c.begin) {
		return 0
	}
	idx := bytes.Index(input[len(c.begin):], c.end)
	if idx < 0 {
		return len(input)
	}
	return len(c.begin) + idx + len(c.end)
}

type lineComment struct {
	starts     [][]byte
	exceptions [][]byte
	stop       []byte
}

func (c *lineComment) Match(cursor *parsly.Cursor) int {
	input := cursor.Input[cursor.Pos:cursor.InputSize]
	for _, exception := range c.exceptions {
		if bytes.HasPrefix(input, exception) {
			return 0
		}
	}
	for _, start := range c.starts {
		if !bytes.HasPrefix(input, start) {
			continue
		}
		end := bytes.IndexByte(input, '\n')
		if end < 0 {
			end = len(input)
		}
		if len(c.stop) > 0 {
			if idx := bytes.Index(input[:end], c.stop); idx >= len(start) {
				end = idx
			}
		}
		return end
	}
	return 0
}

type quoted struct {
	quotes []byte
	escape byte
}

func (q *quoted) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize {
		return 0
	}
	open := cursor.Input[cursor.Pos]
	if bytes.IndexByte(q.quotes, open) < 0 {
		return 0
	}
	for i := cursor.Pos + 1; i < cursor.InputSize; i++ {
		b := cursor.Input[i]
		if q.escape != 0 && b == q.escape {
			i++
			continue
		}
		if b == open {
			return i - cursor.Pos + 1
		}
	}
	return cursor.InputSize - cursor.Pos
}

// heredoc matches "<<<ID\n ... \nID" and its quoted (nowdoc) variants. The
// closing identifier may be indented.
type heredoc struct {
	marker []byte
}

func (h *heredoc) Match(cursor *parsly.Cursor) int {
	input := cursor.Input[cursor.Pos:cursor.InputSize]
	if !bytes.HasPrefix(input, h.marker) {
		return 0
	}
	i := len(h.marker)
	for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
		i++
	}
	var quote byte
	if i < len(input) && (input[i] == '\'' || input[i] == '"') {
		quote = input[i]
		i++
	}
	start := i
	for i < len(input) && isWordByte(input[i]) {
		i++
	}
	if i == start || (input[start] >= '0' && input[start] <= '9') {
		return 0
	}
	label := input[start:i]
	if quote != 0 {
		if i >= len(input) || input[i] != quote {
			return 0
		}
		i++
	}
	if i < len(input) && input[i] == '\r' {
		i++
	}
	if i >= len(input) || input[i] != '\n' {
		return 0
	}
	i++

	for i < len(input) {
		lineStart := i
		for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
			i++
		}
		if bytes.HasPrefix(input[i:], label) {
			end := i + len(label)
			if end >= len(input) || !isWordByte(input[end]) {
				return end
			}
		}
		next := bytes.IndexByte(input[lineStart:], '\n')
		if next < 0 {
			break
		}
		i = lineStart + next + 1
	}
	return len(input)
}
