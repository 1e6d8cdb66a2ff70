package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
	"github.com/roach88/flowfilt/internal/store"
)

var (
	caretColor   = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	markerColor  = color.New(color.FgYellow, color.Bold)
	emphasisText = color.New(color.Bold)
)

// FilterErrorDetails is the JSON detail payload for a rejected expression.
type FilterErrorDetails struct {
	Filter   string   `json:"filter"`
	Kind     string   `json:"kind"`
	Offset   int      `json:"offset"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Expected []string `json:"expected,omitempty"`
	Found    string   `json:"found,omitempty"`
}

// filterErrorCode maps a syntax error kind to its CLI error code.
func filterErrorCode(kind filter.ErrorKind) string {
	switch kind {
	case filter.ErrKindUnknownDirective:
		return ErrCodeUnknownDirective
	case filter.ErrKindInvalidPattern:
		return ErrCodeInvalidPattern
	default:
		return ErrCodeFilterSyntax
	}
}

// reportFilterError writes a rejected expression with a caret under the
// failing column and returns an ExitFailure error.
func reportFilterError(f *OutputFormatter, expr string, err error) error {
	var se *filter.SyntaxError
	if !errors.As(err, &se) {
		return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	code := filterErrorCode(se.Kind)
	if f.Format == "json" {
		return f.Fail(ExitFailure, code, se.Error(), FilterErrorDetails{
			Filter:   expr,
			Kind:     string(se.Kind),
			Offset:   se.Offset,
			Line:     se.Line,
			Column:   se.Column,
			Expected: se.Expected,
			Found:    se.Found,
		})
	}

	fmt.Fprintf(f.Writer, "%s %s\n", failColor.Sprint("✗"), se.Error())
	writeCaret(f.Writer, expr, se.Line, se.Column)
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, se.Message))
}

// writeCaret prints the failing source line and a caret under column.
func writeCaret(w io.Writer, expr string, line, column int) {
	src := sourceLine(expr, line)
	fmt.Fprintf(w, "  %s\n", src)
	fmt.Fprintf(w, "  %s%s\n", caretPadding(src, column), caretColor.Sprint("^"))
}

// sourceLine returns the 1-based line of text, treating \n, \r\n and \r
// as line terminators.
func sourceLine(text string, line int) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	lines := strings.Split(normalized, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// caretPadding returns whitespace that lines a caret up with the 1-based
// rune column of src. Tabs are kept so terminals expand them identically.
func caretPadding(src string, column int) string {
	var b strings.Builder
	n := 0
	for _, r := range src {
		if n >= column-1 {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		n++
	}
	for ; n < column-1; n++ {
		b.WriteByte(' ')
	}
	return b.String()
}

// loadFlows reads a flow file, mapping failures to command errors.
func loadFlows(f *OutputFormatter, path string) ([]*flow.Flow, error) {
	flows, err := flow.LoadFile(path, nil)
	if err != nil {
		var le *flow.LoadError
		if errors.As(err, &le) {
			return nil, f.Fail(ExitCommandError, ErrCodeFlowLoad, le.Error(), map[string]string{"path": path, "code": le.Code})
		}
		return nil, f.Fail(ExitCommandError, ErrCodeFlowLoad, err.Error(), nil)
	}
	f.VerboseLog("Loaded %d flow(s) from %s", len(flows), path)
	return flows, nil
}

// openStore opens the database at path, logging through the default logger.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, "--db is required", nil)
	}
	st, err := store.Open(path, store.WithLogger(slog.Default()))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening database %s: %v", path, err), nil)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
