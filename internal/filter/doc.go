// Package filter implements the flow filter expression language: a small
// query language for selecting and highlighting intercepted flows.
//
// ARCHITECTURE:
//
// Parsing and compiling are two thin, one-to-one steps:
//
//	[filter text] → ParseNode → [Node tree] → Compile → [*Predicate]
//
// Parse does both. The parser is a hand-written recursive-descent rendition
// of a PEG grammar: ordered choice with backtracking, and error reporting
// at the furthest position any alternative reached, together with the set
// of alternatives expected there.
//
// GRAMMAR (highest to lowest binding):
//
//	start   = __ OrExpr __ EOF  |  __ EOF            ; blank input is "true"
//	OrExpr  = AndExpr __ "|" __ OrExpr  |  AndExpr
//	AndExpr = NotExpr __ "&" __ AndExpr |  NotExpr ws+ AndExpr  |  NotExpr
//	NotExpr = "!" __ NotExpr  |  "(" __ OrExpr __ ")"  |  Leaf
//	Leaf    = directive [ws+ argument]  |  "true"  |  "false"  |  string
//
// Juxtaposition is conjunction: "~m GET ~d example" equals
// "~m GET & ~d example". And and Or are right-associative.
//
// A directive is "~" followed by the longest run of characters that are
// neither whitespace nor control characters. The whole word selects the
// leaf, so "~hq" can never be read as "~h" followed by garbage. Unknown
// words fail immediately with ErrKindUnknownDirective.
//
// LITERALS:
//
//   - "double quoted" and 'single quoted' strings support the escapes
//     \" \' \\ \n \r \t. Both may be empty.
//   - Bare words run until whitespace, a control character (| & ! ( ) ~ ")
//     or end of input. They cannot start with a control character or a
//     single quote, and process no escapes.
//   - Integers are ASCII digits, optionally wrapped in quotes.
//
// SEMANTICS:
//
// Pattern arguments are RE2 regular expressions matched case-insensitively
// anywhere in the subject. RE2 matches in linear time, so hostile patterns
// cannot cause catastrophic backtracking; patterns RE2 rejects fail at
// parse time with ErrKindInvalidPattern, attributed to the literal.
//
// Leaves compile eagerly. Every pattern in an expression must be valid even
// when evaluation would short-circuit past it.
//
// A predicate never errors at evaluation time. Leaves that test a missing
// part of a flow (a status code without a response, a header without a
// request) evaluate to false.
//
// Predicates hold no mutable state and are safe for concurrent use.
package filter
