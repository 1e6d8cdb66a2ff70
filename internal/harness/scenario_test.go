package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineFlows = `
flows:
  - id: ok
    type: http
    request: {method: GET, scheme: https, host: example.com, port: 443, path: /, headers: []}
    response: {status_code: 200, headers: []}
  - type: tcp
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: inline
description: "Inline flows"
`+inlineFlows+`
cases:
  - filter: "~c 200"
    match: [ok]
    description: "resp. code is 200"
  - filter: "~x"
    error:
      kind: UNKNOWN_DIRECTIVE
      offset: 0
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "inline", scenario.Name)
	assert.Equal(t, "Inline flows", scenario.Description)
	require.Len(t, scenario.Flows, 2)
	assert.Equal(t, "ok", scenario.Flows[0].ID)
	assert.Equal(t, "flow-1", scenario.Flows[1].ID, "missing ids are assigned deterministically")
	require.Len(t, scenario.Cases, 2)
	assert.Equal(t, []string{"ok"}, scenario.Cases[0].Match)
	require.NotNil(t, scenario.Cases[1].Error)
	assert.Equal(t, "UNKNOWN_DIRECTIVE", scenario.Cases[1].Error.Kind)
	require.NotNil(t, scenario.Cases[1].Error.Offset)
	assert.Equal(t, 0, *scenario.Cases[1].Error.Offset)
}

func TestLoadScenario_FlowsFileRelative(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/leaves.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "flows.yaml"), scenario.FlowsFile)
	require.Len(t, scenario.Flows, 6)
	assert.Equal(t, "flow-1", scenario.Flows[5].ID)
}

func TestLoadScenario_EmptyMatchList(t *testing.T) {
	path := writeScenario(t, `
name: empty_match
description: "Explicit empty match"
`+inlineFlows+`
cases:
  - filter: "~e"
    match: []
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.NotNil(t, scenario.Cases[0].Match)
	assert.Empty(t, scenario.Cases[0].Match)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed\n")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Typo in field name"
`+inlineFlows+`
case:
  - filter: "~s"
    match: [ok]
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_InvalidFlow(t *testing.T) {
	path := writeScenario(t, `
name: bad_flow
description: "Response and error together"
flows:
  - id: both
    type: http
    response: {status_code: 200, headers: []}
    error: {msg: boom, timestamp: 0}
cases:
  - filter: "~s"
    match: [both]
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestValidateScenario(t *testing.T) {
	offset := -1
	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			FlowsFile:   "testdata/flows.yaml",
			Cases:       []Case{{Filter: "~s", Match: []string{}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"valid", func(*Scenario) {}, ""},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no flows", func(s *Scenario) { s.FlowsFile = "" }, "flows or flows_file is required"},
		{"missing flows file", func(s *Scenario) { s.FlowsFile = "testdata/nope.yaml" }, "flows file not found"},
		{"no cases", func(s *Scenario) { s.Cases = nil }, "cases list is required"},
		{"neither match nor error", func(s *Scenario) { s.Cases[0].Match = nil }, "cases[0]: match or error is required"},
		{"match and error", func(s *Scenario) {
			s.Cases[0].Error = &ExpectError{Kind: "SYNTAX"}
		}, "mutually exclusive"},
		{"missing error kind", func(s *Scenario) {
			s.Cases[0] = Case{Filter: "~", Error: &ExpectError{}}
		}, "kind is required"},
		{"unknown error kind", func(s *Scenario) {
			s.Cases[0] = Case{Filter: "~", Error: &ExpectError{Kind: "LEXER"}}
		}, `unknown error kind "LEXER"`},
		{"negative offset", func(s *Scenario) {
			s.Cases[0] = Case{Filter: "~", Error: &ExpectError{Kind: "SYNTAX", Offset: &offset}}
		}, "offset must be non-negative"},
		{"description on error case", func(s *Scenario) {
			s.Cases[0] = Case{Filter: "~", Description: "x", Error: &ExpectError{Kind: "SYNTAX"}}
		}, "cannot be checked on an error case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
