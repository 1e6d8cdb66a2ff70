package filter

import (
	"fmt"

	"github.com/roach88/flowfilt/internal/flow"
)

// Predicate is a compiled filter expression.
//
// A Predicate is immutable and safe for concurrent use.
type Predicate struct {
	match func(*flow.Flow) bool
	desc  string
	node  Node
	text  string
}

// Matches evaluates the predicate against f. A nil flow is treated as an
// empty record: only constant and stub leaves can match it.
func (p *Predicate) Matches(f *flow.Flow) bool {
	if f == nil {
		f = &flow.Flow{}
	}
	return p.match(f)
}

// Description returns the human-readable rendering of the predicate.
func (p *Predicate) Description() string {
	return p.desc
}

// Node returns the expression tree the predicate was compiled from.
func (p *Predicate) Node() Node {
	return p.node
}

// String returns the source text for parsed predicates and canonical
// filter syntax for built ones.
func (p *Predicate) String() string {
	if p.text != "" {
		return p.text
	}
	return p.node.String()
}

// Parse parses and compiles a filter expression.
func Parse(text string) (*Predicate, error) {
	node, err := ParseNode(text)
	if err != nil {
		return nil, err
	}
	pred, err := Compile(node)
	if err != nil {
		return nil, err
	}
	pred.text = text
	return pred, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Predicate {
	p, err := Parse(text)
	if err != nil {
		panic(fmt.Sprintf("filter: MustParse(%q): %v", text, err))
	}
	return p
}

// Match parses text and evaluates it against f.
func Match(text string, f *flow.Flow) (bool, error) {
	p, err := Parse(text)
	if err != nil {
		return false, err
	}
	return p.Matches(f), nil
}

// True returns the predicate that matches every flow.
func True() *Predicate {
	return constant(true)
}

// False returns the predicate that matches no flow.
func False() *Predicate {
	return constant(false)
}

func constant(v bool) *Predicate {
	return &Predicate{
		match: func(*flow.Flow) bool { return v },
		desc:  fmt.Sprint(v),
		node:  &Literal{Value: v},
	}
}

// Not returns the negation of p.
func (p *Predicate) Not() *Predicate {
	return &Predicate{
		match: func(f *flow.Flow) bool { return !p.match(f) },
		desc:  "not " + p.desc,
		node:  &Not{X: p.node},
	}
}

// And returns the conjunction of p and q. q is not evaluated when p fails.
func (p *Predicate) And(q *Predicate) *Predicate {
	return &Predicate{
		match: func(f *flow.Flow) bool { return p.match(f) && q.match(f) },
		desc:  p.desc + " and " + q.desc,
		node:  &And{L: p.node, R: q.node},
	}
}

// Or returns the disjunction of p and q. q is not evaluated when p holds.
func (p *Predicate) Or(q *Predicate) *Predicate {
	return &Predicate{
		match: func(f *flow.Flow) bool { return p.match(f) || q.match(f) },
		desc:  p.desc + " or " + q.desc,
		node:  &Or{L: p.node, R: q.node},
	}
}

// Group wraps p in parentheses. Matching is unchanged.
func (p *Predicate) Group() *Predicate {
	return &Predicate{
		match: p.match,
		desc:  "(" + p.desc + ")",
		node:  &Group{X: p.node},
	}
}
