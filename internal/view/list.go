// Package view maintains a filtered, highlighted list of flows as flows are
// added, updated and removed.
//
// The list keeps flows in arrival order. The active filter decides which
// flows are visible; the highlight marks visible flows without hiding the
// rest. Both are filter expressions; an empty expression disables them.
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
)

// ErrUnknownFlow is returned by Update for an id the list does not hold.
var ErrUnknownFlow = errors.New("unknown flow")

// List is safe for concurrent use.
type List struct {
	mu     sync.RWMutex
	logger *slog.Logger

	order  []string
	byID   map[string]*flow.Flow
	inView map[string]bool

	filterText    string
	filter        *filter.Predicate
	highlightText string
	highlight     *filter.Predicate
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the logger for filter changes.
func WithLogger(l *slog.Logger) Option {
	return func(v *List) {
		if l != nil {
			v.logger = l
		}
	}
}

// New returns an empty list with no filter and no highlight.
func New(opts ...Option) *List {
	l := &List{
		logger: slog.Default(),
		byID:   make(map[string]*flow.Flow),
		inView: make(map[string]bool),
		filter: filter.True(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add appends f, or replaces the flow with the same id in place.
func (l *List) Add(f *flow.Flow) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("add flow: id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[f.ID]; !ok {
		l.order = append(l.order, f.ID)
	}
	l.put(f)
	return nil
}

// Update replaces a known flow and re-evaluates its visibility.
func (l *List) Update(f *flow.Flow) error {
	if f == nil {
		return fmt.Errorf("update flow: nil flow")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[f.ID]; !ok {
		return fmt.Errorf("update flow %q: %w", f.ID, ErrUnknownFlow)
	}
	l.put(f)
	return nil
}

// put stores f and updates its view membership. Caller holds mu.
func (l *List) put(f *flow.Flow) {
	l.byID[f.ID] = f
	if l.filter.Matches(f) {
		l.inView[f.ID] = true
	} else {
		delete(l.inView, f.ID)
	}
}

// Remove drops the flow with id. Reports whether it was present.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byID[id]; !ok {
		return false
	}
	delete(l.byID, id)
	delete(l.inView, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Receive replaces the whole list with flows. Nothing changes when any
// flow lacks an id.
func (l *List) Receive(flows []*flow.Flow) error {
	for _, f := range flows {
		if f == nil || f.ID == "" {
			return fmt.Errorf("receive flows: id is required")
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.order = l.order[:0]
	l.byID = make(map[string]*flow.Flow, len(flows))
	l.inView = make(map[string]bool, len(flows))
	for _, f := range flows {
		if _, dup := l.byID[f.ID]; !dup {
			l.order = append(l.order, f.ID)
		}
		l.put(f)
	}
	return nil
}

// SetFilter changes which flows are visible. An expression that fails to
// parse is returned as an error and the previous filter stays active.
func (l *List) SetFilter(expr string) error {
	pred, err := compile(expr)
	if err != nil {
		l.logger.Debug("filter rejected", "filter", expr, "error", err)
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.filterText = expr
	l.filter = pred
	l.inView = make(map[string]bool, len(l.byID))
	for id, f := range l.byID {
		if pred.Matches(f) {
			l.inView[id] = true
		}
	}
	l.logger.Debug("filter set", "filter", expr, "description", pred.Description(), "visible", len(l.inView))
	return nil
}

// SetHighlight changes which flows are highlighted. An expression that
// fails to parse is returned as an error and the previous highlight stays
// active. The empty expression clears the highlight.
func (l *List) SetHighlight(expr string) error {
	var pred *filter.Predicate
	if expr != "" {
		var err error
		if pred, err = filter.Parse(expr); err != nil {
			l.logger.Debug("highlight rejected", "highlight", expr, "error", err)
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.highlightText = expr
	l.highlight = pred
	return nil
}

// compile treats the empty expression as match-all.
func compile(expr string) (*filter.Predicate, error) {
	if expr == "" {
		return filter.True(), nil
	}
	return filter.Parse(expr)
}

// Filter returns the active filter expression.
func (l *List) Filter() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filterText
}

// FilterDescription describes the active filter.
func (l *List) FilterDescription() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.filter.Description()
}

// Highlight returns the active highlight expression.
func (l *List) Highlight() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.highlightText
}

// Get returns the flow with id, visible or not.
func (l *List) Get(id string) (*flow.Flow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	f, ok := l.byID[id]
	return f, ok
}

// Len returns the number of flows held, visible or not.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// View returns the visible flows in arrival order.
func (l *List) View() []*flow.Flow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*flow.Flow, 0, len(l.inView))
	for _, id := range l.order {
		if l.inView[id] {
			out = append(out, l.byID[id])
		}
	}
	return out
}

// IsHighlighted reports whether the flow with id is held and matches the
// highlight. Always false without a highlight.
func (l *List) IsHighlighted(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	f, ok := l.byID[id]
	if !ok || l.highlight == nil {
		return false
	}
	return l.highlight.Matches(f)
}
