package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
)

const upsertFlowSQL = `
	INSERT INTO flows
	(id, kind, method, host, status_code, has_request, has_response, has_error, marked, data)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		kind = excluded.kind,
		method = excluded.method,
		host = excluded.host,
		status_code = excluded.status_code,
		has_request = excluded.has_request,
		has_response = excluded.has_response,
		has_error = excluded.has_error,
		marked = excluded.marked,
		data = excluded.data
`

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PutFlow inserts or replaces a flow record. The flow must pass
// flow.Validate.
func (s *Store) PutFlow(ctx context.Context, f *flow.Flow) error {
	if err := putFlow(ctx, s.db, f); err != nil {
		return fmt.Errorf("put flow: %w", err)
	}
	return nil
}

// PutFlows writes flows in a single transaction. Either every flow is
// stored or none is.
func (s *Store) PutFlows(ctx context.Context, flows []*flow.Flow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put flows: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, f := range flows {
		if err := putFlow(ctx, tx, f); err != nil {
			return fmt.Errorf("put flows: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put flows: commit: %w", err)
	}
	s.logger.Debug("stored flows", "count", len(flows))
	return nil
}

func putFlow(ctx context.Context, db execer, f *flow.Flow) error {
	if f == nil {
		return fmt.Errorf("nil flow")
	}
	if err := f.Validate(); err != nil {
		return err
	}
	row, err := marshalFlow(f)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, upsertFlowSQL,
		row.id,
		row.kind,
		row.method,
		row.host,
		row.statusCode,
		row.hasRequest,
		row.hasResponse,
		row.hasError,
		row.marked,
		row.data,
	)
	if err != nil {
		return fmt.Errorf("flow %s: %w", f.ID, err)
	}
	return nil
}

// DeleteFlow removes a flow. Returns ErrNotFound if no flow has the id.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	return requireAffected(res, "flow", id)
}

// SavedFilter is a named filter expression.
type SavedFilter struct {
	Name        string `json:"name"`
	Expression  string `json:"expression"`
	Description string `json:"description"`
}

// SaveFilter validates expr and stores it under name, replacing any
// existing filter with that name. Invalid expressions are rejected with the
// *filter.SyntaxError from parsing.
func (s *Store) SaveFilter(ctx context.Context, name, expr string) (SavedFilter, error) {
	if name == "" {
		return SavedFilter{}, fmt.Errorf("save filter: name is required")
	}
	pred, err := filter.Parse(expr)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}

	saved := SavedFilter{Name: name, Expression: expr, Description: pred.Description()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_filters (name, expression, description)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			expression = excluded.expression,
			description = excluded.description
	`, saved.Name, saved.Expression, saved.Description)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("save filter %q: %w", name, err)
	}
	return saved, nil
}

// DeleteFilter removes a saved filter. Returns ErrNotFound if absent.
func (s *Store) DeleteFilter(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	return requireAffected(res, "filter", name)
}

func requireAffected(res sql.Result, what, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", what, key, ErrNotFound)
	}
	return nil
}
