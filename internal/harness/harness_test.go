package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAndRun(t *testing.T, path string) *Result {
	t.Helper()
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			result := loadAndRun(t, path)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_RecordsCaseOutcomes(t *testing.T) {
	result := loadAndRun(t, "testdata/scenarios/errors.yaml")
	require.Len(t, result.Cases, 6)

	unknown := result.Cases[0]
	require.NotNil(t, unknown.Error)
	assert.Equal(t, "UNKNOWN_DIRECTIVE", unknown.Error.Kind)
	assert.Equal(t, 0, unknown.Error.Offset)
	assert.Empty(t, unknown.Matched)

	pattern := result.Cases[1]
	require.NotNil(t, pattern.Error)
	assert.Equal(t, "INVALID_PATTERN", pattern.Error.Kind)
	assert.Equal(t, 3, pattern.Error.Offset)

	last := result.Cases[5]
	assert.Nil(t, last.Error)
	assert.Equal(t, "has response", last.Description)
	assert.Equal(t, "~s", last.Canonical)
	assert.Equal(t, []string{"get-home", "get-css", "flow-1"}, last.Matched, "matches keep arrival order")
}

func TestRun_MatchMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:      "mismatch",
		FlowsFile: "testdata/flows.yaml",
		Cases: []Case{
			{Filter: "~e", Match: []string{"get-home"}},
		},
	}
	require.NoError(t, scenario.loadFlows())

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected match [get-home], got [put-upload]")
}

func TestRun_ExpectationMismatches(t *testing.T) {
	offset := 5
	scenario := &Scenario{
		Name:      "mismatches",
		FlowsFile: "testdata/flows.yaml",
		Cases: []Case{
			{Filter: "~s", Match: []string{"get-home", "get-css", "flow-1"}, Description: "is response"},
			{Filter: "~s ~e", Match: []string{}, Canonical: "~s ~e"},
			{Filter: "~c 200", Error: &ExpectError{Kind: "SYNTAX"}},
			{Filter: "~x", Error: &ExpectError{Kind: "SYNTAX", Offset: &offset, Message: "nope"}},
			{Filter: "~c", Match: []string{}},
		},
	}
	require.NoError(t, scenario.loadFlows())

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)

	assert.Equal(t, []string{
		`cases[0] "~s": expected description "is response", got "has response"`,
		`cases[1] "~s ~e": expected canonical "~s ~e", got "~s & ~e"`,
		`cases[2] "~c 200": expected SYNTAX error, filter was accepted`,
		`cases[3] "~x": expected SYNTAX error, got UNKNOWN_DIRECTIVE: unknown filter directive "~x"`,
		`cases[3] "~x": expected error at offset 5, got 0`,
		`cases[3] "~x": expected error message containing "nope", got "unknown filter directive \"~x\""`,
	}, result.Errors[:6])
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[6], `cases[4] "~c": unexpected SYNTAX error at offset 2`)
}

func TestRun_PushdownAgreesWithView(t *testing.T) {
	scenario := &Scenario{
		Name:      "pushdown",
		FlowsFile: "testdata/flows.yaml",
		Cases: []Case{
			{Filter: "!(~c 200 | ~d example) & ~http", Match: []string{"post-items"}},
			{Filter: "~q | ~websocket", Match: []string{"post-items", "put-upload", "flow-1"}},
			{Filter: "!~b x", Match: []string{}},
		},
	}
	require.NoError(t, scenario.loadFlows())

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/operators.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/leaves.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := Snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"scenario_name":"leaves"`)
}
