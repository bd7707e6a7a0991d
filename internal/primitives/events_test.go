package primitives_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/blockvm/internal/ir"
)

const broadcastProject = `
  - name: Stage
    is_stage: true
    variables: [{name: n, value: 0}, {name: seen, value: -1}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: send
      - id: send
        opcode: %s
        inputs: {BROADCAST_INPUT: {block: menu}}
        next: record
      - id: menu
        opcode: event_broadcast_menu
        shadow: true
        fields: {BROADCAST_OPTION: {value: Go, id: msg1}}
      - id: record
        opcode: data_setvariableto
        fields: {VARIABLE: seen}
        inputs: {VALUE: {block: n_val}}
      - id: n_val
        opcode: data_variable
        fields: {VARIABLE: n}
  - name: Cat
    blocks:
      - id: recv
        opcode: event_whenbroadcastreceived
        top_level: true
        fields: {BROADCAST_OPTION: go}
        next: rep
      - id: rep
        opcode: control_repeat
        inputs: {TIMES: 3, SUBSTACK: {block: incr}}
      - id: incr
        opcode: data_changevariableby
        fields: {VARIABLE: n}
        inputs: {VALUE: 1}
`

func TestBroadcastAndWait(t *testing.T) {
	h := newHarness(t, fmt.Sprintf(broadcastProject, "event_broadcastandwait"))
	h.flag(2, 0)

	assert.Equal(t, ir.Int(3), h.variable("Stage", "n"))
	assert.Equal(t, ir.Int(3), h.variable("Stage", "seen"), "the sender resumes after every receiver finished")
	assert.Empty(t, h.rt.Threads())
}

func TestBroadcastDoesNotWait(t *testing.T) {
	h := newHarness(t, fmt.Sprintf(broadcastProject, "event_broadcast"))
	h.flag(2, 0)

	assert.Equal(t, ir.Int(3), h.variable("Stage", "n"))
	assert.Equal(t, ir.Int(0), h.variable("Stage", "seen"))
}

func TestBroadcastAndWaitWithoutReceivers(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: after, value: 0}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: send
      - id: send
        opcode: event_broadcastandwait
        inputs: {BROADCAST_INPUT: nobody}
        next: set
      - id: set
        opcode: data_setvariableto
        fields: {VARIABLE: after}
        inputs: {VALUE: 1}
`)
	h.flag(1, 0)
	assert.Equal(t, ir.Int(1), h.variable("Stage", "after"))
}

func TestKeyPressHatsAndLastKey(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: key, value: ""}, {name: any, value: 0}]
    blocks:
      - id: space
        opcode: event_whenkeypressed
        top_level: true
        fields: {KEY_OPTION: space}
        next: set
      - id: set
        opcode: data_setvariableto
        fields: {VARIABLE: key}
        inputs: {VALUE: {block: last}}
      - id: last
        opcode: argument_reporter_string_number
        fields: {VALUE: last key pressed}
      - id: anykey
        opcode: event_whenkeypressed
        top_level: true
        fields: {KEY_OPTION: any}
        next: count
      - id: count
        opcode: data_changevariableby
        fields: {VARIABLE: any}
        inputs: {VALUE: 1}
`)
	started := h.rt.KeyPress("space")
	assert.Len(t, started, 2)
	h.frames(1, 0)
	assert.Equal(t, ir.String("space"), h.variable("Stage", "key"))

	h.rt.KeyPress("a")
	h.frames(1, 0)
	assert.Equal(t, ir.Int(2), h.variable("Stage", "any"))
	assert.Equal(t, ir.String("space"), h.variable("Stage", "key"))
}

func TestClickHats(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{name: clicks, value: 0}]
    blocks:
      - id: clicked
        opcode: event_whenstageclicked
        top_level: true
        next: count
      - id: count
        opcode: data_changevariableby
        fields: {VARIABLE: clicks}
        inputs: {VALUE: 1}
`)
	h.rt.StartHats("event_whenstageclicked", nil, h.rt.Stage())
	h.frames(1, 0)
	assert.Equal(t, ir.Int(1), h.variable("Stage", "clicks"))
}
