package primitives_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSayForSecs(t *testing.T) {
	h := newHarness(t, `
  - name: Cat
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: say
      - id: say
        opcode: looks_sayforsecs
        inputs: {MESSAGE: Hello!, SECS: 0.5}
`)
	h.flag(2, 200*time.Millisecond)
	assert.Equal(t, "Hello!", h.rt.Target("Cat").Saying())

	h.frames(2, 200*time.Millisecond)
	assert.Equal(t, "", h.rt.Target("Cat").Saying())
	assert.Empty(t, h.rt.Threads())
}

func TestSayAndThink(t *testing.T) {
	h := newHarness(t, `
  - name: Cat
    blocks:
      - id: flag
        opcode: event_whenflagclicked
        top_level: true
        next: say
      - id: say
        opcode: looks_say
        inputs: {MESSAGE: 42}
        next: think
      - id: think
        opcode: looks_think
        inputs: {MESSAGE: hmm}
`)
	h.flag(1, 0)
	assert.Equal(t, "hmm", h.rt.Target("Cat").Saying())
}
