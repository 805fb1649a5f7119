package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"

	"github.com/roach88/domfuzz/internal/engine"
)

// Scenario defines a generation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Grammar is the path of the main RELAX NG file, relative to the
	// scenario file.
	Grammar string `yaml:"grammar"`

	// Mode is the validity mode: raw, definable or startable.
	Mode string `yaml:"mode"`

	Seed  uint64 `yaml:"seed"`
	Count int    `yaml:"count"`

	// Limits override the generator defaults when non-zero.
	MaxRepeat int `yaml:"max_repeat,omitempty"`
	MaxDepth  int `yaml:"max_depth,omitempty"`
	MaxNodes  int `yaml:"max_nodes,omitempty"`

	// Assertions are checked against every generated document.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion is a property of the generated documents.
type Assertion struct {
	// Type is one of the Assert constants.
	Type string `yaml:"type"`

	// Path selects elements, relative to the document root (unit_scaling,
	// cpuset_disjoint, element_absent, element_present).
	Path string `yaml:"path,omitempty"`

	// Attr names the attribute holding the value (unit_scaling,
	// cpuset_disjoint). unit_scaling reads the element text when empty.
	Attr string `yaml:"attr,omitempty"`

	// Count is the minimum number of documents that must contain Path
	// (element_present). Zero means every document.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertMemoryChain    = "memory_chain"
	AssertNumaBudget     = "numa_budget"
	AssertUniqueCells    = "unique_cells"
	AssertVcpupinUnique  = "vcpupin_unique"
	AssertUnitScaling    = "unit_scaling"
	AssertCpusetDisjoint = "cpuset_disjoint"
	AssertElementAbsent  = "element_absent"
	AssertElementPresent = "element_present"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The grammar path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Grammar != "" && !filepath.IsAbs(scenario.Grammar) {
		scenario.Grammar = filepath.Join(filepath.Dir(path), scenario.Grammar)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Grammar == "" {
		return fmt.Errorf("grammar is required")
	}
	if _, err := os.Stat(s.Grammar); os.IsNotExist(err) {
		return fmt.Errorf("grammar file not found: %s", s.Grammar)
	}

	if _, err := engine.ParseMode(s.Mode); err != nil {
		return err
	}

	if s.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", s.Count)
	}

	if s.MaxRepeat < 0 || s.MaxDepth < 0 || s.MaxNodes < 0 {
		return fmt.Errorf("limits must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Path != "" {
		if _, err := etree.CompilePath(a.Path); err != nil {
			return fmt.Errorf("assertions[%d]: invalid path %q: %w", index, a.Path, err)
		}
	}

	switch a.Type {
	case AssertMemoryChain, AssertNumaBudget, AssertUniqueCells, AssertVcpupinUnique:
	case AssertUnitScaling, AssertElementAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertCpusetDisjoint:
		if a.Path == "" || a.Attr == "" {
			return fmt.Errorf("assertions[%d]: path and attr are required for cpuset_disjoint", index)
		}
	case AssertElementPresent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for element_present", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for element_present", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
