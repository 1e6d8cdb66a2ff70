package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/flowfilt/internal/flow"
)

// CaseSnapshot captures the observed outcome of every case in a scenario.
// It is serialized with flow.MarshalCanonical for deterministic comparison.
type CaseSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Cases        []CaseResult `json:"cases"`
}

// Snapshot renders the golden bytes for a scenario result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	return flow.MarshalCanonical(CaseSnapshot{
		ScenarioName: scenarioName,
		Cases:        result.Cases,
	})
}

// RunWithGolden executes a scenario and compares the case outcomes against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcomes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
