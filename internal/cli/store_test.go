package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flowfilt/internal/store"
)

func importTestFlows(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "flows.db")
	out, err := execute(t, "import", "--db", db, testFlows)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 4 flow(s) from testdata/flows.yaml (4 stored)")
	return db
}

func flowSummaryIDs(flows []FlowSummary) []string {
	ids := make([]string, 0, len(flows))
	for _, f := range flows {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestImport_Idempotent(t *testing.T) {
	db := importTestFlows(t)

	out, err := execute(t, "--format", "json", "import", "--db", db, testFlows)
	require.NoError(t, err)

	var result ImportResult
	decodeResponse(t, out, &result)
	assert.Equal(t, 4, result.Imported)
	assert.Equal(t, 4, result.Stored, "re-importing replaces flows by id")
}

func TestImport_RequiresDB(t *testing.T) {
	_, err := execute(t, "import", testFlows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestImport_InvalidFlowFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flows.db")
	_, err := execute(t, "import", "--db", db, "testdata/bad_flows.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuery(t *testing.T) {
	db := importTestFlows(t)

	tests := []struct {
		expr string
		want []string
	}{
		{"~c 200 | ~tcp", []string{"db", "get-home"}},
		{"~m POST", []string{"post-items"}},
		{"~d example.com & !~c 200", []string{"missing"}},
		{"~hq json", []string{"post-items"}},
		{"", []string{"db", "get-home", "missing", "post-items"}},
		{"~e", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out, err := execute(t, "--format", "json", "query", "--db", db, tt.expr)
			require.NoError(t, err)

			var result MatchResult
			decodeResponse(t, out, &result)
			assert.Equal(t, 4, result.Total)
			assert.Equal(t, len(tt.want), result.Matched)
			assert.Equal(t, tt.want, flowSummaryIDs(result.Flows))
		})
	}
}

func TestQuery_Text(t *testing.T) {
	db := importTestFlows(t)

	out, err := execute(t, "query", "--db", db, "~c 201")
	require.NoError(t, err)
	assert.Contains(t, out, "post-items  POST http://api.test:8080/v1/items 201")
	assert.Contains(t, out, "1 of 4 flow(s) match resp. code is 201")
}

func TestQuery_InvalidFilter(t *testing.T) {
	db := importTestFlows(t)

	_, err := execute(t, "query", "--db", db, "~c x")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestQuery_ExprOrSaved(t *testing.T) {
	db := importTestFlows(t)

	_, err := execute(t, "query", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "query", "--db", db, "--saved", "x", "~s")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFilters_Lifecycle(t *testing.T) {
	db := importTestFlows(t)

	out, err := execute(t, "filters", "save", "--db", db, "not-found", "~c 404")
	require.NoError(t, err)
	assert.Contains(t, out, "saved not-found: resp. code is 404")

	_, err = execute(t, "filters", "save", "--db", db, "api", "~d api")
	require.NoError(t, err)

	out, err = execute(t, "--format", "json", "filters", "list", "--db", db)
	require.NoError(t, err)
	var saved []store.SavedFilter
	decodeResponse(t, out, &saved)
	assert.Equal(t, []store.SavedFilter{
		{Name: "api", Expression: "~d api", Description: "domain matches /api/i"},
		{Name: "not-found", Expression: "~c 404", Description: "resp. code is 404"},
	}, saved)

	out, err = execute(t, "filters", "show", "--db", db, "api")
	require.NoError(t, err)
	assert.Contains(t, out, "expression:  ~d api")
	assert.Contains(t, out, "description: domain matches /api/i")

	out, err = execute(t, "--format", "json", "query", "--db", db, "--saved", "not-found")
	require.NoError(t, err)
	var result MatchResult
	decodeResponse(t, out, &result)
	assert.Equal(t, "~c 404", result.Filter)
	assert.Equal(t, []string{"missing"}, flowSummaryIDs(result.Flows))

	_, err = execute(t, "filters", "delete", "--db", db, "api")
	require.NoError(t, err)

	out, err = execute(t, "filters", "show", "--db", db, "api")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E302]")
}

func TestFilters_ListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flows.db")
	out, err := execute(t, "filters", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No saved filters.\n", out)
}

func TestFilters_SaveRejectsInvalid(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flows.db")

	out, err := execute(t, "--format", "json", "filters", "save", "--db", db, "broken", `~d "("`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	response := decodeResponse(t, out, nil)
	require.NotNil(t, response.Error)
	assert.Equal(t, ErrCodeInvalidPattern, response.Error.Code)

	out, err = execute(t, "filters", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No saved filters.\n", out)
}

func TestFilters_DeleteMissing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "flows.db")
	_, err := execute(t, "filters", "delete", "--db", db, "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeFilterMissing)
}
