package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/store"
)

func TestTraceText(t *testing.T) {
	_, db := recordRun(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "(counter, finished, 5 frames)")
	assert.Contains(t, out, "[1] frame 0 thread_start")
	assert.Contains(t, out, "Events: 2, hat 1, thread_start 1")
	assert.Contains(t, out, "Threads: 1, errors: 0")
}

func TestTraceFilters(t *testing.T) {
	_, db := recordRun(t)

	out, err := execute(t, "trace", "--db", db, "--kind", "hat", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, "hat", resp.Data.Timeline[0].Kind)

	out, err = execute(t, "trace", "--db", db, "--thread", "Stage&nothing", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Data.Timeline)

	out, err = execute(t, "trace", "--db", db, "--kind", "hat", "--kind", "thread_start", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Timeline, 2)

	out, err = execute(t, "trace", "--db", db, "--from-frame", "1", "--block", "flag", "--format", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Timeline, 1)
	assert.Equal(t, int64(1), resp.Data.Timeline[0].Frame)
}

func TestTraceInvalidFrameRange(t *testing.T) {
	_, db := recordRun(t)

	_, err := execute(t, "trace", "--db", db, "--from-frame", "4", "--to-frame", "2")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid frame range")
}

func TestTraceList(t *testing.T) {
	_, db := recordRun(t)

	out, err := execute(t, "trace", "--db", db, "--list", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "counter", resp.Data[0].Project)
}

func TestTraceUnknownRun(t *testing.T) {
	_, db := recordRun(t)

	_, err := execute(t, "trace", "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `run "nope" not found`)
}

func TestTraceMissingDatabase(t *testing.T) {
	_, err := execute(t, "trace", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceRequiresDatabaseFlag(t *testing.T) {
	_, err := execute(t, "trace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}
