package filter

import (
	"regexp"
	"strconv"
	"strings"
)

// Node is a parsed filter expression.
//
// This is a sealed interface - only types in this package can implement it.
// The unexported marker method prevents external implementations.
type Node interface {
	filterNode()

	// String renders the node as filter syntax that parses back to an
	// equivalent expression.
	String() string
}

// Literal is the constant true or false.
type Literal struct {
	Value bool
}

// Leaf is a single directive test, or a bare string which tests the URL.
type Leaf struct {
	// Directive is the full directive word including "~", e.g. "~hq".
	// Bare strings use "~u" with Bare set.
	Directive string

	// Arg is the decoded pattern argument for pattern directives.
	Arg string

	// Code is the argument of integer directives.
	Code int

	// Bare is true for a string with no directive prefix.
	Bare bool

	// Pos is the byte offset of the leaf in the source; ArgPos the offset of
	// its argument literal.
	Pos    int
	ArgPos int

	re *regexp.Regexp
}

// Not negates X.
type Not struct {
	X Node
}

// And is the conjunction of L and R.
type And struct {
	L, R Node
}

// Or is the disjunction of L and R.
type Or struct {
	L, R Node
}

// Group is a parenthesized expression.
type Group struct {
	X Node
}

// Marker methods seal the Node interface.
func (*Literal) filterNode() {}
func (*Leaf) filterNode()    {}
func (*Not) filterNode()     {}
func (*And) filterNode()     {}
func (*Or) filterNode()      {}
func (*Group) filterNode()   {}

// Binding strength used to decide where String needs parentheses.
const (
	precOr = iota + 1
	precAnd
	precNot
	precPrimary
)

func precedence(n Node) int {
	switch n.(type) {
	case *Or:
		return precOr
	case *And:
		return precAnd
	case *Not:
		return precNot
	default:
		return precPrimary
	}
}

// operand renders n, parenthesized when it binds looser than min.
func operand(n Node, min int) string {
	if precedence(n) < min {
		return "(" + n.String() + ")"
	}
	return n.String()
}

func (n *Literal) String() string {
	return strconv.FormatBool(n.Value)
}

func (n *Leaf) String() string {
	d, ok := directiveTable[n.Directive]
	if !ok {
		return n.Directive
	}
	switch d.Arg {
	case ArgInteger:
		return n.Directive + " " + strconv.Itoa(n.Code)
	case ArgPattern:
		if n.Bare {
			return quoteArg(n.Arg)
		}
		return n.Directive + " " + quoteArg(n.Arg)
	default:
		return n.Directive
	}
}

func (n *Not) String() string {
	return "!" + operand(n.X, precNot)
}

// And and Or are right-associative, so a left operand of the same kind
// keeps its parentheses.
func (n *And) String() string {
	return operand(n.L, precNot) + " & " + operand(n.R, precAnd)
}

func (n *Or) String() string {
	return operand(n.L, precAnd) + " | " + operand(n.R, precOr)
}

func (n *Group) String() string {
	return "(" + n.X.String() + ")"
}

// quoteArg renders s as a bare word when that parses back to s, otherwise
// as a double-quoted literal.
func quoteArg(s string) string {
	if isBareWord(s) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isBareWord(s string) bool {
	if s == "" || s == "true" || s == "false" || s[0] == '\'' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) || isControl(s[i]) {
			return false
		}
	}
	return true
}
