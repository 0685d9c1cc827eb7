// Package harness runs builder scenarios.
//
// A scenario drives a sqlbuilder.Builder through a list of steps and states
// what the resulting statement must look like. Scenarios are fixtures for
// the builder, and the CLI's build command executes them.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: delete_minimal
//	description: "DELETE carries only its table and condition"
//	kind: DELETE
//	sql: DELETE FROM mytable WHERE id = ?
//	steps:
//	  - {op: table, name: mytable}
//	  - {op: literal, let: id_col, value: id}
//	  - {op: param, let: id, name: id, type: int}
//	  - {op: cond, let: cond, operator: "=", args: [id_col, id]}
//	  - {op: where, args: [cond]}
//	expect:
//	  serialization: '{"sql":"DELETE FROM mytable ...'
//	  render: DELETE FROM mytable WHERE id = ?
//
// The same structure can be declared in CUE under a top-level "scenario"
// struct, see LoadCUE.
//
// # Steps
//
// Each step names a builder operation (op). Steps that register a part
// return a builder id, which "let" binds to a label; args refer to earlier
// labels or to literal ids. "id" sets the builder id hint.
//
// # Expectations
//
//   - serialization: exact canonical form of the statement
//   - render: SQLite rendering (parameters as "?")
//   - error: code of the builder or validation error the scenario must hit
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/select_fixture.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
