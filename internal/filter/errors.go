package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidFilter matches every error returned by Parse, ParseNode and
// Compile via errors.Is.
var ErrInvalidFilter = errors.New("invalid filter expression")

// ErrorKind categorizes filter errors.
type ErrorKind string

const (
	// ErrKindSyntax indicates malformed grammar: unbalanced parentheses,
	// unterminated literals, trailing input, non-digit integers.
	ErrKindSyntax ErrorKind = "SYNTAX"

	// ErrKindUnknownDirective indicates a "~word" that names no leaf.
	ErrKindUnknownDirective ErrorKind = "UNKNOWN_DIRECTIVE"

	// ErrKindInvalidPattern indicates an argument RE2 cannot compile.
	ErrKindInvalidPattern ErrorKind = "INVALID_PATTERN"
)

// Descriptions used in SyntaxError.Expected.
const (
	descEnd        = "end of input"
	descWhitespace = "whitespace"
	descString     = "string"
	descInteger    = "integer"
	descDirective  = "filter directive"
	descEscape     = "escape sequence"
)

// SyntaxError describes why a filter expression failed to parse.
//
// Offset is a 0-based byte offset into the input. Line and Column are
// 1-based; Column counts runes. Expected lists the alternatives that would
// have been accepted at Offset, deduplicated and sorted. Found is the
// character at Offset or "end of input".
type SyntaxError struct {
	Kind     ErrorKind
	Message  string
	Offset   int
	Line     int
	Column   int
	Expected []string
	Found    string

	// Err is the underlying regexp error for ErrKindInvalidPattern.
	Err error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Is reports whether target is ErrInvalidFilter.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// Unwrap returns the underlying error, if any.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// IsSyntaxError reports whether err is a *SyntaxError of the given kind.
// Uses errors.As to handle wrapped errors.
func IsSyntaxError(err error, kind ErrorKind) bool {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// newSyntaxError fills in the position fields for offset in src.
func newSyntaxError(src string, offset int, kind ErrorKind, expected []string, message string) *SyntaxError {
	line, col := location(src, offset)
	e := &SyntaxError{
		Kind:     kind,
		Offset:   offset,
		Line:     line,
		Column:   col,
		Expected: normalizeExpected(expected),
		Found:    foundAt(src, offset),
	}
	if message == "" {
		message = buildMessage(e.Expected, e.Found)
	}
	e.Message = message
	return e
}

// location converts a byte offset to a 1-based line and rune column.
// "\n", "\r\n" and a lone "\r" each end a line.
func location(src string, offset int) (line, col int) {
	line, col = 1, 1
	seenCR := false
	for i, r := range src {
		if i >= offset {
			break
		}
		switch r {
		case '\n':
			if !seenCR {
				line++
			}
			col = 1
			seenCR = false
		case '\r':
			line++
			col = 1
			seenCR = true
		default:
			col++
			seenCR = false
		}
	}
	return line, col
}

func foundAt(src string, offset int) string {
	if offset >= len(src) {
		return descEnd
	}
	r, _ := utf8.DecodeRuneInString(src[offset:])
	return string(r)
}

func normalizeExpected(expected []string) []string {
	if len(expected) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(expected))
	out := make([]string, 0, len(expected))
	for _, e := range expected {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

// buildMessage renders `Expected "a", "b" or c but "x" found.`
func buildMessage(expected []string, found string) string {
	var exp string
	switch len(expected) {
	case 0:
		exp = "nothing"
	case 1:
		exp = expected[0]
	default:
		exp = strings.Join(expected[:len(expected)-1], ", ") + " or " + expected[len(expected)-1]
	}
	if found != descEnd {
		found = strconv.Quote(found)
	}
	return fmt.Sprintf("Expected %s but %s found.", exp, found)
}

// quoteDesc renders a literal token the way it appears in Expected.
func quoteDesc(lit string) string {
	return strconv.Quote(lit)
}
