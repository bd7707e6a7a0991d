package primitives_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

const askProject = `
  - name: Stage
    is_stage: true
    variables: [{name: name, value: ""}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: ask
      - id: ask
        opcode: sensing_askandwait
        inputs: {QUESTION: "What's your name?"}
        next: store
      - id: store
        opcode: data_setvariableto
        fields: {VARIABLE: name}
        inputs: {VALUE: {block: ans}}
      - id: ans
        opcode: sensing_answer
`

func TestAskAndWaitResumesOnAnswer(t *testing.T) {
	h := newHarness(t, askProject)
	h.flag(3, 0)

	threads := h.rt.Threads()
	require.Len(t, threads, 1)
	assert.Equal(t, engine.StatusPromiseWait, threads[0].Status())
	assert.Equal(t, []string{"What's your name?"}, h.rt.Asker().Pending())
	assert.Equal(t, "What's your name?", h.rt.Stage().Saying())
	assert.Equal(t, ir.String(""), h.variable("Stage", "name"))

	// The answer arrives from outside the frame loop.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, h.rt.Asker().Answer("Ada"))
	}()
	wg.Wait()

	h.frames(1, 0)
	assert.Equal(t, ir.String("Ada"), h.variable("Stage", "name"))
	assert.Empty(t, h.rt.Stage().Saying())
	assert.Empty(t, h.rt.Threads())
}

func TestStopAllDropsPendingQuestions(t *testing.T) {
	h := newHarness(t, askProject)
	h.flag(2, 0)
	require.Len(t, h.rt.Asker().Pending(), 1)

	h.rt.StopAll()

	assert.Empty(t, h.rt.Asker().Pending())
	assert.False(t, h.rt.Asker().Answer("late"), "nobody is waiting any more")
	assert.Equal(t, ir.String(""), h.variable("Stage", "name"))
}

func TestKeyPressedReportsHeldKeys(t *testing.T) {
	h := newHarness(t, `
  - name: Sprite
    blocks:
      - id: top
        opcode: sensing_keypressed
        top_level: true
        inputs: {KEY_OPTION: {block: menu}}
      - id: menu
        opcode: sensing_keyoptions
        shadow: true
        fields: {KEY_OPTION: space}
`)
	_, err := h.rt.ToggleScript("Sprite", "top")
	require.NoError(t, err)
	h.rt.RunFrames(1)

	h.rt.KeyPress("SPACE")
	_, err = h.rt.ToggleScript("Sprite", "top")
	require.NoError(t, err)
	h.rt.RunFrames(1)

	assert.Equal(t, []ir.Value{ir.Bool(false), ir.Bool(true)}, h.reports.values)
}
