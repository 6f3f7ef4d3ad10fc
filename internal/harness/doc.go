// Package harness runs conformance scenarios against the block serializer.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	input: trees/add.json          # or an inline tree:
//	tree:
//	  type: essentials_num_arithmetic
//	  fields: {OP: "+"}
//	vocab:                         # optional extra type mappings
//	  custom_block: custom_tag
//	max_depth: 0                   # optional limits, 0 is unlimited
//	max_nodes: 0
//	expect:
//	  xml: '<block type="math_arithmetic">...</block>'
//	  contains: ['<field name="OP">ADD</field>']
//	  not_contains: ['THEN']
//	  error: MISSING_TYPE
//	  unknown_types: [custom_block]
//	assertions:
//	  - type: xpath_count
//	    path: //block[@type="math_number"]
//	    count: 2
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - xpath_count: Verifies the query matches exactly count elements
//   - xpath_exists: Verifies the query matches at least one element
//   - xpath_text: Verifies the text of the first matching element
//
// # Golden Files
//
// RunWithGolden compares the generated document byte for byte with
// testdata/golden/{name}.golden. Serialization is deterministic, so a
// scenario always produces the same document.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/add.yaml")
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
