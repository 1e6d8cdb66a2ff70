package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNode parses text into an expression tree. Pattern arguments are
// compiled while parsing, so an invalid pattern is reported at its own
// offset even when a later part of the text is also malformed.
func ParseNode(text string) (node Node, err error) {
	p := &parser{src: text}

	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			node, err = nil, se
		}
	}()

	p.skipSpace()
	if p.eof() {
		return &Literal{Value: true}, nil
	}

	n, ok := p.parseOr()
	if ok {
		p.skipSpace()
		if p.eof() {
			return n, nil
		}
		p.expect(descEnd)
	}
	return nil, newSyntaxError(p.src, p.failPos, ErrKindSyntax, p.expected, "")
}

// parser is a PEG-style recursive-descent parser. Every rule returns
// ok=false and leaves pos unspecified on failure; callers restore pos before
// trying another alternative. Failures are recorded at the furthest position
// reached, so the final error points at the deepest progress any
// alternative made.
//
// Hard errors (bad directive, bad pattern) cannot be recovered from by
// backtracking and panic with *SyntaxError, caught in ParseNode.
type parser struct {
	src      string
	pos      int
	failPos  int
	expected []string
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

// expect records that desc would have been accepted at the current position.
func (p *parser) expect(desc string) {
	switch {
	case p.pos < p.failPos:
		return
	case p.pos > p.failPos:
		p.failPos = p.pos
		p.expected = p.expected[:0]
	}
	p.expected = append(p.expected, desc)
}

func (p *parser) abort(offset int, kind ErrorKind, expected []string, message string, cause error) {
	se := newSyntaxError(p.src, offset, kind, expected, message)
	se.Err = cause
	panic(se)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isControl(c byte) bool {
	return strings.IndexByte(`|&!()~"`, c) >= 0
}

// skipSpace consumes optional whitespace.
func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// space consumes one or more whitespace characters.
func (p *parser) space() bool {
	if p.eof() || !isSpace(p.peek()) {
		p.expect(descWhitespace)
		return false
	}
	p.skipSpace()
	return true
}

// literal consumes the single-character token tok.
func (p *parser) literal(tok byte) bool {
	if p.peek() == tok && !p.eof() {
		p.pos++
		return true
	}
	p.expect(quoteDesc(string(tok)))
	return false
}

// OrExpr = AndExpr __ "|" __ OrExpr / AndExpr
func (p *parser) parseOr() (Node, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	save := p.pos
	p.skipSpace()
	if p.literal('|') {
		p.skipSpace()
		if right, ok := p.parseOr(); ok {
			return &Or{L: left, R: right}, true
		}
	}
	p.pos = save
	return left, true
}

// AndExpr = NotExpr __ "&" __ AndExpr / NotExpr ws+ AndExpr / NotExpr
func (p *parser) parseAnd() (Node, bool) {
	left, ok := p.parseNot()
	if !ok {
		return nil, false
	}
	save := p.pos
	p.skipSpace()
	if p.literal('&') {
		p.skipSpace()
		if right, ok := p.parseAnd(); ok {
			return &And{L: left, R: right}, true
		}
	}
	p.pos = save
	if p.space() {
		if right, ok := p.parseAnd(); ok {
			return &And{L: left, R: right}, true
		}
	}
	p.pos = save
	return left, true
}

// NotExpr = "!" __ NotExpr / "(" __ OrExpr __ ")" / Leaf
func (p *parser) parseNot() (Node, bool) {
	start := p.pos
	if p.literal('!') {
		p.skipSpace()
		if x, ok := p.parseNot(); ok {
			return &Not{X: x}, true
		}
		p.pos = start
		return nil, false
	}
	if p.literal('(') {
		p.skipSpace()
		if x, ok := p.parseOr(); ok {
			p.skipSpace()
			if p.literal(')') {
				return &Group{X: x}, true
			}
		}
		p.pos = start
		return nil, false
	}
	return p.parseLeaf()
}

// Leaf = directive [ws+ argument] / "true" / "false" / string
func (p *parser) parseLeaf() (Node, bool) {
	start := p.pos
	if p.peek() == '~' && !p.eof() {
		return p.parseDirective()
	}

	s, quoted, ok := p.parseString()
	if !ok {
		p.pos = start
		p.expect(descDirective)
		p.expect(quoteDesc("true"))
		p.expect(quoteDesc("false"))
		return nil, false
	}
	if !quoted && (s == "true" || s == "false") {
		return &Literal{Value: s == "true"}, true
	}
	leaf := &Leaf{Directive: "~u", Arg: s, Bare: true, Pos: start, ArgPos: start}
	p.compileLeaf(leaf)
	return leaf, true
}

func (p *parser) parseDirective() (Node, bool) {
	start := p.pos
	end := start + 1
	for end < len(p.src) && !isSpace(p.src[end]) && !isControl(p.src[end]) {
		end++
	}
	word := p.src[start:end]
	d, ok := directiveTable[word]
	if !ok {
		names := make([]string, 0, len(directiveTable))
		for name := range directiveTable {
			names = append(names, quoteDesc(name))
		}
		p.abort(start, ErrKindUnknownDirective, names,
			fmt.Sprintf("unknown filter directive %q", word), nil)
	}
	p.pos = end

	leaf := &Leaf{Directive: word, Pos: start}
	if d.Arg == ArgNone {
		return leaf, true
	}
	if !p.space() {
		return nil, false
	}
	leaf.ArgPos = p.pos

	switch d.Arg {
	case ArgInteger:
		code, ok := p.parseInteger()
		if !ok {
			return nil, false
		}
		leaf.Code = code
	case ArgPattern:
		s, _, ok := p.parseString()
		if !ok {
			return nil, false
		}
		leaf.Arg = s
		p.compileLeaf(leaf)
	}
	return leaf, true
}

// compileLeaf compiles the pattern argument of leaf or aborts at its offset.
func (p *parser) compileLeaf(leaf *Leaf) {
	re, err := compilePattern(leaf.Arg)
	if err != nil {
		p.abort(leaf.ArgPos, ErrKindInvalidPattern, nil,
			fmt.Sprintf("invalid pattern %q: %v", leaf.Arg, err), err)
	}
	leaf.re = re
}

// IntegerLiteral "integer" = ['"]? [0-9]+ ['"]?
func (p *parser) parseInteger() (int, bool) {
	start := p.pos
	if c := p.peek(); (c == '"' || c == '\'') && !p.eof() {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if p.pos == digits {
		p.pos = start
		p.expect(descInteger)
		return 0, false
	}
	text := p.src[digits:p.pos]
	if c := p.peek(); (c == '"' || c == '\'') && !p.eof() {
		p.pos++
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		p.abort(start, ErrKindSyntax, []string{descInteger},
			fmt.Sprintf("integer %s out of range", text), err)
	}
	return n, true
}

// StringLiteral "string" = '"' DoubleChar* '"' / "'" SingleChar* "'" / !cc !"'" UnquotedChar+
//
// quoted reports whether the literal used either quote form.
func (p *parser) parseString() (s string, quoted bool, ok bool) {
	start := p.pos
	if p.eof() {
		p.expect(descString)
		return "", false, false
	}
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		p.pos++
		s, ok = p.parseQuoted(c)
		if !ok {
			return "", false, false
		}
		return s, true, true
	case isSpace(c) || isControl(c):
		p.expect(descString)
		return "", false, false
	}
	for !p.eof() && !isSpace(p.peek()) && !isControl(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos], false, true
}

// parseQuoted reads up to and including the closing quote q.
func (p *parser) parseQuoted(q byte) (string, bool) {
	var b strings.Builder
	for {
		if p.eof() {
			p.expect(quoteDesc(string(q)))
			p.expect(quoteDesc(`\`))
			return "", false
		}
		c := p.src[p.pos]
		switch c {
		case q:
			p.pos++
			return b.String(), true
		case '\\':
			p.pos++
			r, ok := unescape(p.peek())
			if p.eof() || !ok {
				p.expect(descEscape)
				return "", false
			}
			b.WriteByte(r)
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

// unescape maps the character after a backslash to its value.
func unescape(c byte) (byte, bool) {
	switch c {
	case '"', '\'', '\\':
		return c, true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	default:
		return 0, false
	}
}
