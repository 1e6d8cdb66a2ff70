package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/flowfilt/internal/flow"
)

// flowRow holds the column values written for a flow.
type flowRow struct {
	id          string
	kind        string
	method      sql.NullString
	host        sql.NullString
	statusCode  sql.NullInt64
	hasRequest  bool
	hasResponse bool
	hasError    bool
	marked      bool
	data        string
}

// marshalFlow converts a flow to its row. data uses canonical JSON so equal
// flows store identical bytes.
func marshalFlow(f *flow.Flow) (flowRow, error) {
	data, err := flow.MarshalCanonical(f)
	if err != nil {
		return flowRow{}, fmt.Errorf("marshal flow %s: %w", f.ID, err)
	}

	row := flowRow{
		id:          f.ID,
		kind:        string(f.Kind),
		hasRequest:  f.Request != nil,
		hasResponse: f.Response != nil,
		hasError:    f.Error != nil,
		marked:      f.Marked,
		data:        string(data),
	}
	if f.Request != nil {
		row.method = sql.NullString{String: f.Request.Method, Valid: true}
		row.host = sql.NullString{String: f.Request.Host, Valid: true}
	}
	if f.Response != nil {
		row.statusCode = sql.NullInt64{Int64: int64(f.Response.StatusCode), Valid: true}
	}
	return row, nil
}

// unmarshalFlow parses the data column.
func unmarshalFlow(data string) (*flow.Flow, error) {
	var f flow.Flow
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return nil, fmt.Errorf("unmarshal flow: %w", err)
	}
	return &f, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFlow(sc scanner) (*flow.Flow, error) {
	var data string
	if err := sc.Scan(&data); err != nil {
		return nil, err
	}
	return unmarshalFlow(data)
}
