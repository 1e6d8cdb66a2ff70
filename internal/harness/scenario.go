package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flowfilt/internal/filter"
	"github.com/roach88/flowfilt/internal/flow"
)

// Scenario defines a filter conformance scenario.
// A scenario evaluates a list of filter expressions against a fixed set of
// flows and checks which flows each expression selects.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// FlowsFile is a .yaml, .json or .cue flow file.
	// Relative paths are resolved against the scenario file's directory.
	FlowsFile string `yaml:"flows_file,omitempty"`

	// Flows are inline flow records. Exactly one of Flows and FlowsFile
	// must be given.
	Flows []*flow.Flow `yaml:"flows,omitempty"`

	// Cases are the expressions to evaluate, in order.
	Cases []Case `yaml:"cases"`
}

// Case is one filter expression and its expected outcome.
type Case struct {
	// Filter is the expression text.
	Filter string `yaml:"filter"`

	// Match lists the IDs of the flows the filter must select.
	// Order is irrelevant. Use an explicit empty list for "matches nothing".
	Match []string `yaml:"match,omitempty"`

	// Description is the expected predicate description (optional).
	Description string `yaml:"description,omitempty"`

	// Canonical is the expected canonical expression text (optional).
	Canonical string `yaml:"canonical,omitempty"`

	// Error expects the filter to be rejected. Mutually exclusive with Match.
	Error *ExpectError `yaml:"error,omitempty"`
}

// ExpectError describes an expected parse failure.
type ExpectError struct {
	// Kind is a filter.ErrorKind value: SYNTAX, UNKNOWN_DIRECTIVE or
	// INVALID_PATTERN.
	Kind string `yaml:"kind"`

	// Offset is the expected byte offset of the failure (optional).
	Offset *int `yaml:"offset,omitempty"`

	// Message must be a substring of the error message (optional).
	Message string `yaml:"message,omitempty"`
}

var knownErrorKinds = map[string]bool{
	string(filter.ErrKindSyntax):           true,
	string(filter.ErrKindUnknownDirective): true,
	string(filter.ErrKindInvalidPattern):   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Flows are loaded and validated; missing flow IDs are assigned
// deterministically as flow-1, flow-2, ...
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.FlowsFile != "" && !filepath.IsAbs(scenario.FlowsFile) {
		scenario.FlowsFile = filepath.Join(filepath.Dir(path), scenario.FlowsFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := scenario.loadFlows(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func (s *Scenario) loadFlows() error {
	gen := flow.NewSequenceGenerator("flow")
	if s.FlowsFile != "" {
		flows, err := flow.LoadFile(s.FlowsFile, gen)
		if err != nil {
			return err
		}
		s.Flows = flows
		return nil
	}
	if err := flow.Prepare(s.Flows, gen); err != nil {
		return fmt.Errorf("flows: %w", err)
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.FlowsFile != "" && len(s.Flows) > 0:
		return fmt.Errorf("flows and flows_file are mutually exclusive")
	case s.FlowsFile == "" && len(s.Flows) == 0:
		return fmt.Errorf("flows or flows_file is required")
	}

	if s.FlowsFile != "" {
		if _, err := os.Stat(s.FlowsFile); os.IsNotExist(err) {
			return fmt.Errorf("flows file not found: %s", s.FlowsFile)
		}
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	for i := range s.Cases {
		if err := validateCase(i, &s.Cases[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateCase validates a single case.
func validateCase(index int, c *Case) error {
	switch {
	case c.Error != nil && c.Match != nil:
		return fmt.Errorf("cases[%d]: match and error are mutually exclusive", index)
	case c.Error == nil && c.Match == nil:
		return fmt.Errorf("cases[%d]: match or error is required", index)
	}

	if c.Error == nil {
		return nil
	}
	if c.Error.Kind == "" {
		return fmt.Errorf("cases[%d].error: kind is required", index)
	}
	if !knownErrorKinds[c.Error.Kind] {
		return fmt.Errorf("cases[%d].error: unknown error kind %q", index, c.Error.Kind)
	}
	if c.Error.Offset != nil && *c.Error.Offset < 0 {
		return fmt.Errorf("cases[%d].error: offset must be non-negative", index)
	}
	if c.Description != "" || c.Canonical != "" {
		return fmt.Errorf("cases[%d]: description and canonical cannot be checked on an error case", index)
	}
	return nil
}
