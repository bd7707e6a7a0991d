package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/ir"
)

func TestRunCounterScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "counter.scenario.yaml"))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "counter-run", result.RunID)
	assert.Equal(t, int64(7), result.Frames)
	assert.Equal(t, ir.Int(6), result.Variables["Stage"]["score"])
	assert.Equal(t, "Hello!", result.Saying["Cat"])
	assert.Equal(t, 1, result.Threads)
}

func TestRunIsDeterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "counter.scenario.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRunReportsFailedAssertions(t *testing.T) {
	path := writeScenario(t, `
name: wrong
project: counter.yaml
max_passes: 1
steps:
  - green_flag: true
  - frames: 3
assertions:
  - type: variable
    target: Stage
    name: score
    equals: 100
  - type: threads
    count: 0
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Stage.score = 100")
	assert.Contains(t, result.Errors[0], "Actual: 2")
	assert.Contains(t, result.Errors[1], "0 running threads")
}

func TestRunStopAllAndAdvance(t *testing.T) {
	path := writeScenario(t, `
name: stop
project: counter.yaml
steps:
  - frames: 1
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	s.Steps = []Step{{StopAll: true}, {Advance: "2s"}, {Frames: 1}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, int64(1), result.Frames)
	assert.Equal(t, 0, result.Threads)
}

func TestRunAnswersQuestion(t *testing.T) {
	project, err := filepath.Abs(filepath.Join("testdata", "projects", "ask.yaml"))
	require.NoError(t, err)
	path := writeScenario(t, `
name: ask
project: `+project+`
steps:
  - green_flag: true
  - frames: 3
  - answer: Ada
  - frames: 1
assertions:
  - type: variable
    target: Stage
    name: greeting
    equals: "Hi Ada"
  - type: threads
    count: 0
  - type: trace_count
    kind: error
    count: 0
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(4), result.Frames)
}

func TestRunQuestionWaitsWithoutAnswer(t *testing.T) {
	project, err := filepath.Abs(filepath.Join("testdata", "projects", "ask.yaml"))
	require.NoError(t, err)
	path := writeScenario(t, `
name: unanswered
project: `+project+`
steps:
  - green_flag: true
  - frames: 5
assertions:
  - type: variable
    target: Stage
    name: greeting
    equals: ""
  - type: threads
    count: 1
  - type: saying
    target: Cat
    equals: "What's your name?"
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunClickUnknownTarget(t *testing.T) {
	path := writeScenario(t, `
name: click
project: counter.yaml
steps:
  - click: {target: Dog, block: incr}
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)

	_, err = Run(s)
	assert.ErrorContains(t, err, `target "Dog" not found`)
}
