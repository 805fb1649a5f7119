// Package harness runs generation scenarios: it generates a batch of
// documents from a grammar and checks properties every document must hold.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: memory_chain
//	description: "max >= actual >= current memory in every document"
//	grammar: schema/domain.rng
//	mode: definable
//	seed: 1
//	count: 1000
//	assertions:
//	  - type: memory_chain
//	  - type: cpuset_disjoint
//	    path: ./cputune/vcpusched
//	    attr: vcpus
//	  - type: element_present
//	    path: ./cpu/numa/cell
//	    count: 10
//
// The grammar path is relative to the scenario file.
//
// # Assertion Types
//
//   - memory_chain: maxMemory >= memory >= currentMemory, in bytes
//   - numa_budget: the NUMA cells' memory fits in maxMemory
//   - unique_cells: NUMA cell ids are distinct
//   - vcpupin_unique: pinned vcpu ids are distinct and below the vcpu count
//   - unit_scaling: quantities at path, scaled to bytes, fit in maxMemory
//   - cpuset_disjoint: the id sets in attr of the elements at path never overlap
//   - element_absent: no document contains path
//   - element_present: every document contains path, or at least count of them
//
// Paths are etree paths relative to the document root.
//
// # Determinism
//
// A scenario always generates the same documents: document i uses seed
// seed+i, and records are numbered from a fresh sequence in an in-memory
// SQLite store. AssertGolden compares the stored documents against golden
// files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/memory.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
