package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")
	harnessGolden    = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios, "--golden", harnessGolden)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counter")
	assert.Contains(t, out, "✓ flag_and_click")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios, "--golden", harnessGolden, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Passed)
	golden := map[string]string{}
	for _, s := range resp.Data.Scenarios {
		golden[s.Name] = s.Golden
	}
	assert.Equal(t, map[string]string{"counter": "missing", "flag_and_click": "match"}, golden)
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "test", harnessScenarios, "--golden", harnessGolden, "--filter", "flag*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	golden := t.TempDir()

	out, err := execute(t, "test", harnessScenarios, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")
	_, err = os.Stat(filepath.Join(golden, "counter.golden"))
	require.NoError(t, err)

	out, err = execute(t, "test", harnessScenarios, "--golden", golden, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	for _, s := range resp.Data.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	writeFile(t, golden, "flag_and_click.golden", `{"trace":[]}`)

	out, err := execute(t, "test", harnessScenarios, "--golden", golden, "--filter", "flag_and_click")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ flag_and_click")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "counter.yaml", counterProject)
	writeFile(t, dir, "wrong.scenario.yaml", `
name: wrong
project: counter.yaml
max_passes: 1
steps:
  - green_flag: true
  - frames: 2
assertions:
  - type: variable
    target: Stage
    name: score
    equals: 99
`)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "Stage.score = 99")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingPath(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
