package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
	"github.com/roach88/flowfilt/internal/store"
	"github.com/roach88/flowfilt/internal/view"
)

// Harness is the test execution engine.
// It evaluates every case twice: in memory through a view.List, and through
// the SQL pushdown of an in-memory store. Both must select the same flows.
type Harness struct {
	store  *store.Store
	list   *view.List
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// The returned error is reserved for infrastructure failures; expectation
// mismatches are reported through Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	st, err := store.Open(":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		list:   view.New(view.WithLogger(logger)),
		logger: logger,
	}

	ctx := context.Background()
	if err := h.load(ctx, scenario.Flows); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, c := range scenario.Cases {
		cr, err := h.runCase(ctx, i, c, result)
		if err != nil {
			return nil, err
		}
		result.Cases = append(result.Cases, cr)
	}
	return result, nil
}

func (h *Harness) load(ctx context.Context, flows []*flow.Flow) error {
	if err := h.store.PutFlows(ctx, flows); err != nil {
		return fmt.Errorf("failed to store flows: %w", err)
	}
	if err := h.list.Receive(flows); err != nil {
		return fmt.Errorf("failed to load flows into view: %w", err)
	}
	return nil
}

func (h *Harness) runCase(ctx context.Context, index int, c Case, result *Result) (CaseResult, error) {
	cr := CaseResult{Filter: c.Filter}
	label := fmt.Sprintf("cases[%d] %q", index, c.Filter)

	pred, err := filter.Parse(c.Filter)
	if err != nil {
		var se *filter.SyntaxError
		if !errors.As(err, &se) {
			return cr, fmt.Errorf("%s: %w", label, err)
		}
		cr.Error = &ErrorInfo{Kind: string(se.Kind), Offset: se.Offset, Message: se.Message}
		checkError(label, c.Error, cr.Error, result)
		return cr, nil
	}

	cr.Description = pred.Description()
	cr.Canonical = pred.Node().String()

	if c.Error != nil {
		result.AddError(fmt.Sprintf("%s: expected %s error, filter was accepted", label, c.Error.Kind))
		return cr, nil
	}

	if err := h.list.SetFilter(c.Filter); err != nil {
		return cr, fmt.Errorf("%s: %w", label, err)
	}
	cr.Matched = flowIDs(h.list.View())

	stored, err := h.store.QueryFlows(ctx, pred)
	if err != nil {
		return cr, fmt.Errorf("%s: %w", label, err)
	}
	if pushed := flowIDs(stored); !equalIDs(pushed, cr.Matched) {
		result.AddError(fmt.Sprintf("%s: store returned [%s], in-memory matched [%s]",
			label, strings.Join(pushed, ", "), strings.Join(cr.Matched, ", ")))
	}

	if !equalIDs(c.Match, cr.Matched) {
		result.AddError(fmt.Sprintf("%s: expected match [%s], got [%s]",
			label, strings.Join(sortedIDs(c.Match), ", "), strings.Join(sortedIDs(cr.Matched), ", ")))
	}
	if c.Description != "" && c.Description != cr.Description {
		result.AddError(fmt.Sprintf("%s: expected description %q, got %q", label, c.Description, cr.Description))
	}
	if c.Canonical != "" && c.Canonical != cr.Canonical {
		result.AddError(fmt.Sprintf("%s: expected canonical %q, got %q", label, c.Canonical, cr.Canonical))
	}

	h.logger.Debug("case evaluated", "filter", c.Filter, "matched", len(cr.Matched))
	return cr, nil
}

// checkError compares an observed parse failure against the expectation.
func checkError(label string, want *ExpectError, got *ErrorInfo, result *Result) {
	if want == nil {
		result.AddError(fmt.Sprintf("%s: unexpected %s error at offset %d: %s", label, got.Kind, got.Offset, got.Message))
		return
	}
	if want.Kind != got.Kind {
		result.AddError(fmt.Sprintf("%s: expected %s error, got %s: %s", label, want.Kind, got.Kind, got.Message))
	}
	if want.Offset != nil && *want.Offset != got.Offset {
		result.AddError(fmt.Sprintf("%s: expected error at offset %d, got %d", label, *want.Offset, got.Offset))
	}
	if want.Message != "" && !strings.Contains(got.Message, want.Message) {
		result.AddError(fmt.Sprintf("%s: expected error message containing %q, got %q", label, want.Message, got.Message))
	}
}

func flowIDs(flows []*flow.Flow) []string {
	ids := make([]string, 0, len(flows))
	for _, f := range flows {
		ids = append(ids, f.ID)
	}
	return ids
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := sortedIDs(a), sortedIDs(b)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
