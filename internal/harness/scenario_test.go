package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/testutil"
)

// writeScenario writes the fixture schema and a scenario file into a fresh
// directory and returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteSchema(t, dir)
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: memory
description: "Memory chain holds"
grammar: domain.rng
mode: definable
seed: 7
count: 20
max_repeat: 3
assertions:
  - type: memory_chain
  - type: cpuset_disjoint
    path: ./cputune/vcpusched
    attr: vcpus
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", scenario.Name)
	assert.Equal(t, "Memory chain holds", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), testutil.SchemaPath), scenario.Grammar)
	assert.Equal(t, "definable", scenario.Mode)
	assert.Equal(t, uint64(7), scenario.Seed)
	assert.Equal(t, 20, scenario.Count)
	assert.Equal(t, 3, scenario.MaxRepeat)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, AssertCpusetDisjoint, scenario.Assertions[1].Type)
	assert.Equal(t, "vcpus", scenario.Assertions[1].Attr)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Typo in field name"
grammar: domain.rng
mode: raw
count: 1
assertion:
  - type: memory_chain
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	base := `
name: bad
description: "Invalid scenario"
`
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing grammar",
			body: "mode: raw\ncount: 1\nassertions:\n  - type: memory_chain\n",
			want: "grammar is required",
		},
		{
			name: "grammar not found",
			body: "grammar: other.rng\nmode: raw\ncount: 1\nassertions:\n  - type: memory_chain\n",
			want: "grammar file not found",
		},
		{
			name: "bad mode",
			body: "grammar: domain.rng\nmode: lenient\ncount: 1\nassertions:\n  - type: memory_chain\n",
			want: "unknown mode",
		},
		{
			name: "zero count",
			body: "grammar: domain.rng\nmode: raw\ncount: 0\nassertions:\n  - type: memory_chain\n",
			want: "count must be at least 1",
		},
		{
			name: "no assertions",
			body: "grammar: domain.rng\nmode: raw\ncount: 1\n",
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			body: "grammar: domain.rng\nmode: raw\ncount: 1\nassertions:\n  - type: trace_contains\n",
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "missing path",
			body: "grammar: domain.rng\nmode: raw\ncount: 1\nassertions:\n  - type: element_absent\n",
			want: "path is required for element_absent",
		},
		{
			name: "missing attr",
			body: "grammar: domain.rng\nmode: raw\ncount: 1\nassertions:\n  - type: cpuset_disjoint\n    path: ./cputune/vcpusched\n",
			want: "path and attr are required",
		},
		{
			name: "bad path",
			body: "grammar: domain.rng\nmode: raw\ncount: 1\nassertions:\n  - type: element_present\n    path: ./devices[\n",
			want: "invalid path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, base+tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
