package primitives_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/ir"
)

func TestRepeat(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: n, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: rep
      - id: rep
        opcode: control_repeat
        inputs: {TIMES: 2.6, SUBSTACK: {block: incr}}
      - id: incr
        opcode: data_changevariableby
        fields: {VARIABLE: n}
        inputs: {VALUE: 1}
`)
	h.flag(1, 0)
	assert.Equal(t, ir.Int(3), h.variable("Stage", "n"), "TIMES is rounded")
	assert.Empty(t, h.rt.Threads())
}

func TestRepeatYieldsEveryIteration(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: n, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: rep
      - id: rep
        opcode: control_repeat
        inputs: {TIMES: 50, SUBSTACK: {block: incr}}
      - id: incr
        opcode: data_changevariableby
        fields: {VARIABLE: n}
        inputs: {VALUE: 1}
`)
	h.flag(1, 0)
	// One pass for the hat, nine for iterations.
	assert.Equal(t, ir.Int(9), h.variable("Stage", "n"))
}

func TestRepeatUntilAndWhile(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: a, value: 0}, {name: b, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: until
      - id: until
        opcode: control_repeat_until
        inputs: {CONDITION: {block: a_done}, SUBSTACK: {block: incr_a}}
        next: while
      - id: a_done
        opcode: operator_equals
        inputs: {OPERAND1: {block: a_val}, OPERAND2: 3}
      - id: a_val
        opcode: data_variable
        fields: {VARIABLE: a}
      - id: incr_a
        opcode: data_changevariableby
        fields: {VARIABLE: a}
        inputs: {VALUE: 1}
      - id: while
        opcode: control_while
        inputs: {CONDITION: {block: b_low}, SUBSTACK: {block: incr_b}}
      - id: b_low
        opcode: operator_lt
        inputs: {OPERAND1: {block: b_val}, OPERAND2: 2}
      - id: b_val
        opcode: data_variable
        fields: {VARIABLE: b}
      - id: incr_b
        opcode: data_changevariableby
        fields: {VARIABLE: b}
        inputs: {VALUE: 1}
`)
	h.flag(2, 0)
	assert.Equal(t, ir.Int(3), h.variable("Stage", "a"))
	assert.Equal(t, ir.Int(2), h.variable("Stage", "b"))
}

func TestForEach(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: i, value: 0}, {name: sum, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: each
      - id: each
        opcode: control_for_each
        fields: {VARIABLE: i}
        inputs: {VALUE: 4, SUBSTACK: {block: add}}
      - id: add
        opcode: data_changevariableby
        fields: {VARIABLE: sum}
        inputs: {VALUE: {block: i_val}}
      - id: i_val
        opcode: data_variable
        fields: {VARIABLE: i}
`)
	h.flag(1, 0)
	assert.Equal(t, ir.Int(10), h.variable("Stage", "sum"))
	assert.Equal(t, ir.Int(4), h.variable("Stage", "i"))
}

func TestIfElse(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: out, value: ""}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: branch
      - id: branch
        opcode: control_if_else
        inputs:
          CONDITION: {block: cond}
          SUBSTACK: {block: on_true}
          SUBSTACK2: {block: on_false}
      - id: cond
        opcode: operator_gt
        inputs: {OPERAND1: 3, OPERAND2: 2}
      - id: on_true
        opcode: data_setvariableto
        fields: {VARIABLE: out}
        inputs: {VALUE: then}
      - id: on_false
        opcode: data_setvariableto
        fields: {VARIABLE: out}
        inputs: {VALUE: else}
`)
	h.flag(1, 0)
	assert.Equal(t, ir.String("then"), h.variable("Stage", "out"))
}

func TestWait(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: done, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: wait
      - id: wait
        opcode: control_wait
        inputs: {DURATION: 1}
        next: set
      - id: set
        opcode: data_setvariableto
        fields: {VARIABLE: done}
        inputs: {VALUE: 1}
`)
	h.flag(4, 250*time.Millisecond)
	assert.Equal(t, ir.Int(0), h.variable("Stage", "done"))

	h.frames(1, 250*time.Millisecond)
	assert.Equal(t, ir.Int(1), h.variable("Stage", "done"))
}

func TestWaitRequestsRedraw(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: wait
      - id: wait
        opcode: control_wait
        inputs: {DURATION: 0}
`)
	h.rt.GreenFlag()
	stats := h.rt.RunFrames(1)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Passes, "the redraw ends the frame after the pass that waited")
}

func TestStopThisScript(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: a, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: one
      - id: one
        opcode: data_setvariableto
        fields: {VARIABLE: a}
        inputs: {VALUE: 1}
        next: stop
      - id: stop
        opcode: control_stop
        fields: {STOP_OPTION: this script}
        next: two
      - id: two
        opcode: data_setvariableto
        fields: {VARIABLE: a}
        inputs: {VALUE: 2}
`)
	h.flag(2, 0)
	assert.Equal(t, ir.Int(1), h.variable("Stage", "a"))
	assert.Empty(t, h.rt.Threads())
}

func TestStopOtherScripts(t *testing.T) {
	h := newHarness(t, `
  - name: Cat
    variables: [{name: n, value: 0}]
    blocks:
      - id: spin
        opcode: event_whenflagclicked
        top_level: true
        next: forever
      - id: forever
        opcode: control_forever
        inputs: {SUBSTACK: {block: incr}}
      - id: incr
        opcode: data_changevariableby
        fields: {VARIABLE: n}
        inputs: {VALUE: 1}
      - id: stopper
        opcode: event_whenflagclicked
        top_level: true
        next: stop
      - id: stop
        opcode: control_stop
        fields: {STOP_OPTION: other scripts in sprite}
`)
	h.flag(1, 0)
	assert.Empty(t, h.rt.Threads())

	n := h.variable("Cat", "n")
	h.frames(3, 0)
	assert.Equal(t, n, h.variable("Cat", "n"))
}

func TestStopAllBlock(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    blocks:
      - id: spin
        opcode: event_whenflagclicked
        top_level: true
        next: forever
      - id: forever
        opcode: control_forever
  - name: Cat
    blocks:
      - id: stopper
        opcode: event_whenflagclicked
        top_level: true
        next: stop
      - id: stop
        opcode: control_stop
        fields: {STOP_OPTION: all}
`)
	h.flag(2, 0)
	assert.Empty(t, h.rt.Threads())
}

func TestCounter(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: c, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: clear
      - id: clear
        opcode: control_clear_counter
        next: inc1
      - id: inc1
        opcode: control_incr_counter
        next: inc2
      - id: inc2
        opcode: control_incr_counter
        next: set
      - id: set
        opcode: data_setvariableto
        fields: {VARIABLE: c}
        inputs: {VALUE: {block: get}}
      - id: get
        opcode: control_get_counter
`)
	h.flag(1, 0)
	assert.Equal(t, ir.Int(2), h.variable("Stage", "c"))
}

func TestCreateCloneOfOtherSprite(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: make
      - id: make
        opcode: control_create_clone_of
        inputs: {CLONE_OPTION: {block: menu}}
        next: stage
      - id: menu
        opcode: control_create_clone_of_menu
        shadow: true
        fields: {CLONE_OPTION: Cat}
      - id: stage
        opcode: control_create_clone_of
        inputs: {CLONE_OPTION: _stage_}
  - name: Cat
    variables: [{name: hp, value: 3}]
`)
	h.flag(1, 0)

	targets := h.rt.Targets()
	require.Len(t, targets, 3)
	clone := targets[2]
	assert.Equal(t, "Cat#1", clone.ID())
	assert.Equal(t, "Cat", clone.Name())
	assert.False(t, clone.IsOriginal())
	assert.Equal(t, ir.Int(3), clone.Variables()["hp"])
	assert.Same(t, h.rt.Target("Cat"), targets[1])
}
