package filter

import (
	"fmt"
)

// Compile turns an expression tree into a predicate. Each node maps to
// exactly one combinator or leaf.
//
// Trees from ParseNode always compile. Hand-built trees are validated here:
// unknown directives and invalid patterns return *SyntaxError values
// positioned at the leaf's recorded offsets. With no source text to
// consult, such errors report Line 1 and Column = byte offset + 1.
func Compile(n Node) (*Predicate, error) {
	switch n := n.(type) {
	case *Literal:
		return constant(n.Value), nil
	case *Leaf:
		return compileLeaf(n)
	case *Not:
		x, err := Compile(n.X)
		if err != nil {
			return nil, err
		}
		return x.Not(), nil
	case *And:
		l, r, err := compilePair(n.L, n.R)
		if err != nil {
			return nil, err
		}
		return l.And(r), nil
	case *Or:
		l, r, err := compilePair(n.L, n.R)
		if err != nil {
			return nil, err
		}
		return l.Or(r), nil
	case *Group:
		x, err := Compile(n.X)
		if err != nil {
			return nil, err
		}
		return x.Group(), nil
	case nil:
		return nil, &SyntaxError{Kind: ErrKindSyntax, Message: "nil expression node", Line: 1, Column: 1, Found: descEnd}
	default:
		return nil, fmt.Errorf("filter: unsupported node type %T", n)
	}
}

func compilePair(l, r Node) (*Predicate, *Predicate, error) {
	lp, err := Compile(l)
	if err != nil {
		return nil, nil, err
	}
	rp, err := Compile(r)
	if err != nil {
		return nil, nil, err
	}
	return lp, rp, nil
}

func compileLeaf(l *Leaf) (*Predicate, error) {
	d, ok := directiveTable[l.Directive]
	if !ok {
		return nil, &SyntaxError{
			Kind:    ErrKindUnknownDirective,
			Message: fmt.Sprintf("unknown filter directive %q", l.Directive),
			Offset:  l.Pos,
			Line:    1,
			Column:  l.Pos + 1,
			Found:   "~",
		}
	}

	re := l.re
	if d.Arg == ArgPattern && re == nil {
		var err error
		re, err = compilePattern(l.Arg)
		if err != nil {
			return nil, &SyntaxError{
				Kind:    ErrKindInvalidPattern,
				Message: fmt.Sprintf("invalid pattern %q: %v", l.Arg, err),
				Offset:  l.ArgPos,
				Line:    1,
				Column:  l.ArgPos + 1,
				Err:     err,
			}
		}
	}

	match, desc := d.build(l, re)
	return &Predicate{match: match, desc: desc, node: l}, nil
}
