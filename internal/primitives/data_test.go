package primitives_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/blockvm/internal/ir"
)

func TestVariablesByIDAndName(t *testing.T) {
	h := newHarness(t, `
  - name: Stage
    is_stage: true
    variables: [{id: v1, name: score, value: 10}]
  - name: Cat
    variables: [{name: local, value: a}]
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: by_id
      - id: by_id
        opcode: data_changevariableby
        fields: {VARIABLE: {value: renamed, id: v1}}
        inputs: {VALUE: "2.5"}
        next: local
      - id: local
        opcode: data_setvariableto
        fields: {VARIABLE: local}
        inputs: {VALUE: b}
        next: fresh
      - id: fresh
        opcode: data_changevariableby
        fields: {VARIABLE: created}
        inputs: {VALUE: 1}
`)
	h.flag(1, 0)

	assert.Equal(t, ir.Float(12.5), h.variable("Stage", "score"))
	assert.Equal(t, ir.String("b"), h.variable("Cat", "local"))
	assert.Equal(t, ir.Int(1), h.variable("Cat", "created"), "unknown variables are created on the target")
}
