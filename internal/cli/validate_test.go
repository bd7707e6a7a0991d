package cli

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidProject(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterProject)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (2 targets, 3 blocks)")
}

func TestValidateValidProjectJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "counter.yaml", counterProject)

	out, err := execute(t, "validate", "--format", "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "counter", resp.Data.Project)
	assert.Equal(t, "yaml", resp.Data.Format)
	assert.Len(t, resp.Data.Hash, 64)
}

func TestValidateDanglingReference(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", danglingProject)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "has 1 error(s)")
	assert.Contains(t, out, `[E204] Cat/flag: next block "ghost" not found`)
}

func TestValidateDanglingReferenceJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.yaml", danglingProject)

	out, err := execute(t, "validate", "--format", "json", path)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E007", resp.Error.Code)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "E204", resp.Data.Errors[0].Code)
	assert.Equal(t, "flag", resp.Data.Errors[0].Block)
}

func TestValidateCUEReportsPositions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.cue", `
project: {
	name: "broken"
	targets: [{
		name: "Cat"
		blocks: [{
			id:        "flag"
			opcode:    "event_whenflagclicked"
			top_level: true
			next:      "ghost"
		}]
	}]
}
`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Regexp(t, regexp.QuoteMeta(path)+`:\d+:\d+\n`, out)
}

func TestValidateMissingProject(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestValidateUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "project.toml", "name = 'x'\n")

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}
