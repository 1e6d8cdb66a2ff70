package filtersql_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/filtersql"
	"github.com/roach88/flowfilt/internal/flow"
	"github.com/roach88/flowfilt/internal/store"
)

func execFlows() []*flow.Flow {
	return []*flow.Flow{
		{
			ID:   "z-ok",
			Kind: flow.KindHTTP,
			Request: &flow.Request{
				Method: "GET", Scheme: "https", Host: "example.com", Port: 443, Path: "/",
			},
			Response: &flow.Response{StatusCode: 200},
		},
		{
			ID:   "m-missing",
			Kind: flow.KindHTTP,
			Request: &flow.Request{
				Method: "GET", Scheme: "https", Host: "example.com", Port: 443, Path: "/gone",
			},
			Response: &flow.Response{StatusCode: 404},
		},
		{
			ID:      "b-pending",
			Kind:    flow.KindHTTP,
			Request: &flow.Request{Method: "POST", Scheme: "http", Host: "api.test", Port: 8080, Path: "/v1"},
			Marked:  true,
		},
		{
			ID:      "a-failed",
			Kind:    flow.KindHTTP,
			Request: &flow.Request{Method: "PUT", Scheme: "https", Host: "example.org", Port: 443, Path: "/"},
			Error:   &flow.Error{Msg: "connection reset"},
		},
		{
			ID:         "t-tcp",
			Kind:       flow.KindTCP,
			ServerConn: &flow.Conn{Address: &flow.Address{Host: "10.0.0.9", Port: 5432}},
		},
		{
			ID:       "w-ws",
			Kind:     flow.KindWebSocket,
			Request:  &flow.Request{Method: "GET", Scheme: "wss", Host: "socket.example.com", Port: 443, Path: "/ws"},
			Response: &flow.Response{StatusCode: 101},
		},
	}
}

// openFlowDB writes flows through the store and returns a second connection
// to the same database file.
func openFlowDB(t *testing.T, flows []*flow.Flow) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flows.db")

	st, err := store.Open(path, store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	require.NoError(t, st.PutFlows(context.Background(), flows))
	require.NoError(t, st.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func queryIDs(t *testing.T, db *sql.DB, q filtersql.Query) []string {
	t.Helper()
	rows, err := db.Query(q.SQL, q.Params...)
	require.NoError(t, err, "sql: %s", q.SQL)
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestCompiledQueriesExecute(t *testing.T) {
	flows := execFlows()
	db := openFlowDB(t, flows)
	compiler := &filtersql.SQLCompiler{Table: "flows", Columns: "id"}

	tests := []struct {
		expr  string
		want  []string
		exact bool
	}{
		{"", []string{"a-failed", "b-pending", "m-missing", "t-tcp", "w-ws", "z-ok"}, true},
		{"false", []string{}, true},
		{"~c 404", []string{"m-missing"}, true},
		{"~e", []string{"a-failed"}, true},
		{"~s", []string{"m-missing", "w-ws", "z-ok"}, true},
		{"~q", []string{"a-failed", "b-pending"}, true},
		{"!~q", []string{"m-missing", "t-tcp", "w-ws", "z-ok"}, true},
		{"~marked | ~tcp", []string{"b-pending", "t-tcp"}, true},
		{"~websocket & ~c 101", []string{"w-ws"}, true},
		{"!(~e | ~s)", []string{"b-pending", "t-tcp"}, true},
		{"~b anything", []string{"a-failed", "b-pending", "m-missing", "t-tcp", "w-ws", "z-ok"}, true},
		{"~d example.com & ~c 200", []string{"z-ok"}, false},
		{"~m GET", []string{"m-missing", "w-ws", "z-ok"}, false},
		{"!~d example", []string{"b-pending", "t-tcp"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := filter.Parse(tt.expr)
			require.NoError(t, err)

			q, err := compiler.Compile(pred.Node())
			require.NoError(t, err)
			assert.Equal(t, tt.exact, q.Exact)

			selected := queryIDs(t, db, q)
			byID := make(map[string]*flow.Flow, len(flows))
			for _, f := range flows {
				byID[f.ID] = f
			}

			matched := []string{}
			for _, id := range selected {
				if pred.Matches(byID[id]) {
					matched = append(matched, id)
				}
			}
			assert.Equal(t, tt.want, matched)

			if q.Exact {
				assert.Equal(t, matched, selected, "exact queries need no re-check")
			}

			// Every flow the predicate matches is among the selected rows.
			for _, f := range flows {
				if pred.Matches(f) {
					assert.Contains(t, selected, f.ID)
				}
			}
		})
	}
}

func TestCompiledQueryDefaultProjection(t *testing.T) {
	db := openFlowDB(t, execFlows())

	q, err := filtersql.NewSQLCompiler().Compile(&filter.Literal{Value: true})
	require.NoError(t, err)

	rows, err := db.Query(q.SQL, q.Params...)
	require.NoError(t, err, "sql: %s", q.SQL)
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var data string
		require.NoError(t, rows.Scan(&data))
		f, err := flow.DecodeJSON([]byte("[" + data + "]"))
		require.NoError(t, err)
		require.Len(t, f, 1)
		ids = append(ids, f[0].ID)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a-failed", "b-pending", "m-missing", "t-tcp", "w-ws", "z-ok"}, ids)
}
