package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/domfuzz/internal/testutil"
)

const passingScenario = `
name: memory_chain
description: "Memory chain holds in definable documents"
grammar: domain.rng
mode: definable
seed: 1
count: 10
assertions:
  - type: memory_chain
  - type: element_absent
    path: ./metadata
`

const failingScenario = `
name: memory_absent
description: "Every document has memory, so this fails"
grammar: domain.rng
mode: raw
seed: 1
count: 2
assertions:
  - type: element_absent
    path: ./memory
`

// scenarioDir writes the fixture schema and the given scenario files.
func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteSchema(t, dir)
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return dir
}

func TestTest_AllPass(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"memory.yaml": passingScenario})

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ memory_chain (")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTest_Failure(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"memory.yaml": passingScenario,
		"absent.yml":  failingScenario,
	})

	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", resp.Error.Message)

	var result TestResult
	decodeData(t, resp, &result)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)

	for _, s := range result.Scenarios {
		if s.Name == "memory_absent" {
			assert.False(t, s.Pass)
			require.NotEmpty(t, s.Errors)
			assert.Contains(t, s.Errors[0], "Assertion failed: element_absent")
		}
	}
}

func TestTest_Filter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"memory.yaml": passingScenario,
		"absent.yaml": failingScenario,
	})

	out, err := execute(t, "test", dir, "--filter", "mem*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTest_InvalidScenario(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\nassertions: []\n"})

	out, err := execute(t, "test", dir)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTest_NoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTest_MissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	out, err := execute(t, "test", dir)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenarios directory not found")
}
