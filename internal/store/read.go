package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/filtersql"
	"github.com/roach88/flowfilt/internal/flow"
)

// GetFlow retrieves a single flow by id. Returns ErrNotFound if absent.
func (s *Store) GetFlow(ctx context.Context, id string) (*flow.Flow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM flows WHERE id = ?`, id)
	f, err := scanFlow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("flow %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}
	return f, nil
}

// ListFlows returns every stored flow ordered by id.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListFlows(ctx context.Context) ([]*flow.Flow, error) {
	return s.QueryFlows(ctx, filter.True())
}

// CountFlows returns the number of stored flows.
func (s *Store) CountFlows(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flows: %w", err)
	}
	return n, nil
}

// QueryFlows returns the stored flows matched by pred, ordered by id.
//
// Leaves with indexed columns are evaluated by SQLite. When the pushed-down
// clause is inexact, each candidate row is re-checked with pred.
func (s *Store) QueryFlows(ctx context.Context, pred *filter.Predicate) ([]*flow.Flow, error) {
	q, err := filtersql.NewSQLCompiler().Compile(pred.Node())
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}
	defer rows.Close()

	flows := []*flow.Flow{}
	scanned := 0
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("query flows: %w", err)
		}
		scanned++
		if q.Exact || pred.Matches(f) {
			flows = append(flows, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}

	s.logger.Debug("query flows",
		"filter", pred.String(),
		"exact", q.Exact,
		"scanned", scanned,
		"matched", len(flows))
	return flows, nil
}

// Query parses expr and returns the matching flows. Parse failures are
// returned as *filter.SyntaxError.
func (s *Store) Query(ctx context.Context, expr string) ([]*flow.Flow, error) {
	pred, err := filter.Parse(expr)
	if err != nil {
		return nil, err
	}
	return s.QueryFlows(ctx, pred)
}

// GetFilter retrieves a saved filter. Returns ErrNotFound if absent.
func (s *Store) GetFilter(ctx context.Context, name string) (SavedFilter, error) {
	var sf SavedFilter
	err := s.db.QueryRowContext(ctx, `
		SELECT name, expression, description FROM saved_filters WHERE name = ?
	`, name).Scan(&sf.Name, &sf.Expression, &sf.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedFilter{}, fmt.Errorf("filter %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedFilter{}, fmt.Errorf("get filter: %w", err)
	}
	return sf, nil
}

// ListFilters returns every saved filter ordered by name.
func (s *Store) ListFilters(ctx context.Context) ([]SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, expression, description FROM saved_filters
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	filters := []SavedFilter{}
	for rows.Next() {
		var sf SavedFilter
		if err := rows.Scan(&sf.Name, &sf.Expression, &sf.Description); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		filters = append(filters, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filters: %w", err)
	}
	return filters, nil
}
