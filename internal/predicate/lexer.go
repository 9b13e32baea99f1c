// Package predicate implements the user predicate expression language:
// integer/string/boolean literals, arithmetic and comparison operators,
// ternary, logical operators, pattern-match (`~~`), and `$P`-style
// variables drawn from a method's computed properties (spec.md §4.7's
// "User predicate layer").
package predicate

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent  // bare word: true, false, abort, suppress
	tokVar    // $-prefixed variable, e.g. $L, $P_3
	tokOp     // operator or punctuation, stored verbatim in text
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	src  []rune
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: []rune(src)}
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '(':
			l.toks = append(l.toks, token{tokLParen, "("})
			l.pos++
		case c == ')':
			l.toks = append(l.toks, token{tokRParen, ")"})
			l.pos++
		case c == '$':
			if err := l.lexVar(); err != nil {
				return nil, err
			}
		case c == '"':
			if err := l.lexString(); err != nil {
				return nil, err
			}
		case c >= '0' && c <= '9':
			l.lexNumber()
		case isIdentStart(c):
			l.lexIdent()
		default:
			if err := l.lexOp(); err != nil {
				return nil, err
			}
		}
	}
	l.toks = append(l.toks, token{tokEOF, ""})
	return l.toks, nil
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *lexer) lexVar() error {
	start := l.pos
	l.pos++ // consume '$'
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start+1 {
		return fmt.Errorf("predicate: empty variable name at position %d", start)
	}
	l.toks = append(l.toks, token{tokVar, string(l.src[start+1 : l.pos])})
	return nil
}

func (l *lexer) lexString() error {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		if l.src[l.pos] == '\\' && l.pos+1 < len(l.src) {
			l.pos++
		}
		sb.WriteRune(l.src[l.pos])
		l.pos++
	}
	if l.pos >= len(l.src) {
		return fmt.Errorf("predicate: unterminated string literal at position %d", start)
	}
	l.pos++ // consume closing quote
	l.toks = append(l.toks, token{tokString, sb.String()})
	return nil
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9') {
		l.pos++
	}
	l.toks = append(l.toks, token{tokNumber, string(l.src[start:l.pos])})
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	l.toks = append(l.toks, token{tokIdent, string(l.src[start:l.pos])})
}

var multiCharOps = []string{"~~", "==", "!=", "<=", ">=", "&&", "||"}

func (l *lexer) lexOp() error {
	rest := string(l.src[l.pos:])
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) {
			l.toks = append(l.toks, token{tokOp, op})
			l.pos += len([]rune(op))
			return nil
		}
	}
	c := l.src[l.pos]
	switch c {
	case '+', '-', '*', '/', '%', '<', '>', '?', ':', '!':
		l.toks = append(l.toks, token{tokOp, string(c)})
		l.pos++
		return nil
	}
	return fmt.Errorf("predicate: unexpected character %q at position %d", c, l.pos)
}

func mustParseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
