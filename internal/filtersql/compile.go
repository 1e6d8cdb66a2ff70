// Package filtersql pushes filter expressions down to SQLite.
//
// The compiled WHERE clause selects a superset of the flows the predicate
// matches. Leaves SQLite cannot evaluate (every regular expression leaf)
// compile to "1 = 1" and mark the result inexact; callers must then re-check
// each row with the Go predicate. Exact results need no re-check.
package filtersql

import (
	"fmt"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
)

// Query is a compiled SELECT statement.
type Query struct {
	SQL    string
	Params []any

	// Exact is true when the WHERE clause selects exactly the flows the
	// predicate matches.
	Exact bool
}

// SQLCompiler compiles filter nodes to parameterized SQL for SQLite.
//
// All queries include ORDER BY for deterministic results. All values are
// parameterized, never interpolated.
type SQLCompiler struct {
	// Table is the flow table name.
	Table string

	// Columns is the projection, "data" when empty.
	Columns string
}

// NewSQLCompiler creates a compiler for the flows table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "flows", Columns: "data"}
}

// Compile converts a filter expression to a SELECT over the flow table.
func (c *SQLCompiler) Compile(n filter.Node) (Query, error) {
	if n == nil {
		return Query{}, fmt.Errorf("cannot compile nil filter node")
	}
	where, params, exact, err := c.Where(n)
	if err != nil {
		return Query{}, fmt.Errorf("compile filter: %w", err)
	}

	cols := c.Columns
	if cols == "" {
		cols = "data"
	}

	// Always add ORDER BY; COLLATE BINARY keeps text ordering stable across
	// SQLite versions.
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY id COLLATE BINARY ASC",
		cols, c.Table, where)
	return Query{SQL: sql, Params: params, Exact: exact}, nil
}

// Where compiles n to a WHERE fragment. The fragment never evaluates to
// NULL, so negating an exact fragment stays exact.
func (c *SQLCompiler) Where(n filter.Node) (string, []any, bool, error) {
	switch node := n.(type) {
	case *filter.Literal:
		if node.Value {
			return "1 = 1", nil, true, nil
		}
		return "1 = 0", nil, true, nil
	case *filter.Leaf:
		return c.compileLeaf(node)
	case *filter.Not:
		sql, params, exact, err := c.Where(node.X)
		if err != nil {
			return "", nil, false, err
		}
		if !exact {
			// NOT of a superset is not a superset.
			return "1 = 1", nil, false, nil
		}
		return "NOT (" + sql + ")", params, true, nil
	case *filter.And:
		return c.compileBinary(node.L, node.R, "AND")
	case *filter.Or:
		return c.compileBinary(node.L, node.R, "OR")
	case *filter.Group:
		sql, params, exact, err := c.Where(node.X)
		if err != nil {
			return "", nil, false, err
		}
		return "(" + sql + ")", params, exact, nil
	default:
		return "", nil, false, fmt.Errorf("unsupported filter node type: %T", n)
	}
}

func (c *SQLCompiler) compileBinary(l, r filter.Node, op string) (string, []any, bool, error) {
	lsql, lparams, lexact, err := c.Where(l)
	if err != nil {
		return "", nil, false, err
	}
	rsql, rparams, rexact, err := c.Where(r)
	if err != nil {
		return "", nil, false, err
	}
	sql := fmt.Sprintf("(%s %s %s)", lsql, op, rsql)
	var params []any
	params = append(params, lparams...)
	params = append(params, rparams...)
	return sql, params, lexact && rexact, nil
}

// compileLeaf maps the leaves backed by indexed columns. Everything else is
// left to the Go predicate.
func (c *SQLCompiler) compileLeaf(l *filter.Leaf) (string, []any, bool, error) {
	if _, ok := filter.LookupDirective(l.Directive); !ok {
		return "", nil, false, fmt.Errorf("unknown filter directive %q", l.Directive)
	}

	switch l.Directive {
	case "~c":
		return "(status_code IS NOT NULL AND status_code = ?)", []any{int64(l.Code)}, true, nil
	case "~e":
		return "has_error = 1", nil, true, nil
	case "~s":
		return "has_response = 1", nil, true, nil
	case "~q":
		return "(has_request = 1 AND has_response = 0)", nil, true, nil
	case "~marked":
		return "marked = 1", nil, true, nil
	case "~http":
		return "kind = ?", []any{string(flow.KindHTTP)}, true, nil
	case "~tcp":
		return "kind = ?", []any{string(flow.KindTCP)}, true, nil
	case "~websocket":
		return "kind = ?", []any{string(flow.KindWebSocket)}, true, nil
	case "~b", "~bq", "~bs":
		return "1 = 1", nil, true, nil
	default:
		return "1 = 1", nil, false, nil
	}
}
