// Package harness provides conformance testing for flowfilt filter expressions.
//
// A scenario pairs a fixed set of flows with a list of expressions and the
// flows each expression must select. Every expression is evaluated in memory
// through a view.List and again through the SQL pushdown of an in-memory
// store; the two must agree.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	flows_file: flows.yaml  # or inline "flows:" records
//	cases:
//	  - filter: "~c 200"
//	    match: [get-example]
//	    description: "resp. code is 200"
//	  - filter: "~m [ & ~h x"
//	    error:
//	      kind: INVALID_PATTERN
//	      offset: 3
//
// Flows without an id get flow-1, flow-2, ... in file order, so scenarios
// and golden files stay deterministic.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/codes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range result.Errors {
//	    log.Println(e)
//	}
package harness
