package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const counterProject = `
name: counter
targets:
  - name: Stage
    is_stage: true
    variables:
      - {name: score, value: 0}
  - name: Cat
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: loop
      - id: loop
        opcode: control_forever
        inputs: {SUBSTACK: {block: incr}}
      - id: incr
        opcode: data_changevariableby
        fields: {VARIABLE: score}
        inputs: {VALUE: 1}
`

const danglingProject = `
name: broken
targets:
  - name: Cat
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: ghost
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout and the
// command error. Logs go to a separate buffer.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
