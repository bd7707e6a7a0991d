package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockvm/internal/ir"
)

func procedureBlocks() []ir.Block {
	return []ir.Block{
		{
			ID:       "def",
			Opcode:   "procedures_definition",
			TopLevel: true,
			Inputs:   ir.Inputs{{Name: "custom_block", Block: "proto"}},
			Next:     "say",
		},
		{
			ID:     "proto",
			Opcode: "procedures_prototype",
			Shadow: true,
			Parent: "def",
			Mutation: &ir.Mutation{
				ProcCode:         "jump %s %b",
				ArgumentIDs:      ir.StringList{"a1", "a2"},
				ArgumentNames:    ir.StringList{"height", "fast"},
				ArgumentDefaults: ir.ValueList{ir.Int(10)},
				Warp:             true,
			},
		},
		{ID: "say", Opcode: "looks_say", Parent: "def"},
	}
}

func TestFromBlocksRejectsDuplicates(t *testing.T) {
	_, err := FromBlocks([]ir.Block{{ID: "a", Opcode: "x"}, {ID: "a", Opcode: "y"}})
	assert.Error(t, err)
}

func TestProcedureLookup(t *testing.T) {
	c, err := FromBlocks(procedureBlocks())
	require.NoError(t, err)

	def, ok := c.GetProcedureDefinition("jump %s %b")
	require.True(t, ok)
	assert.Equal(t, "def", def)

	sig, ok := c.GetProcedureParamNamesIdsAndDefaults("jump %s %b")
	require.True(t, ok)
	assert.Equal(t, []string{"height", "fast"}, sig.Names)
	assert.Equal(t, []string{"a1", "a2"}, sig.IDs)
	assert.Equal(t, []ir.Value{ir.Int(10), ir.String("")}, sig.Defaults, "missing defaults are empty strings")

	_, ok = c.GetProcedureDefinition("missing")
	assert.False(t, ok)
}

func TestEditsBumpGeneration(t *testing.T) {
	c, err := FromBlocks(procedureBlocks())
	require.NoError(t, err)
	gen := c.Generation()

	require.NoError(t, c.ChangeField("say", "MESSAGE", ir.String("hi")))
	assert.Greater(t, c.Generation(), gen)

	gen = c.Generation()
	require.NoError(t, c.ChangeMutation("proto", ir.Mutation{ProcCode: "land"}))
	assert.Greater(t, c.Generation(), gen)

	_, ok := c.GetProcedureDefinition("jump %s %b")
	assert.False(t, ok, "index follows the edit")
	def, ok := c.GetProcedureDefinition("land")
	require.True(t, ok)
	assert.Equal(t, "def", def)
}

func TestEditPublishesCopy(t *testing.T) {
	c, err := FromBlocks(procedureBlocks())
	require.NoError(t, err)

	before, _ := c.GetBlock("say")
	require.NoError(t, c.ChangeField("say", "MESSAGE", ir.String("hi")))
	after, _ := c.GetBlock("say")

	assert.Empty(t, before.Fields, "readers of the old block are unaffected")
	f, ok := after.Fields.Get("MESSAGE")
	require.True(t, ok)
	assert.Equal(t, ir.String("hi"), f.Value)
}

func TestDeleteRemovesSubtree(t *testing.T) {
	c, err := FromBlocks(procedureBlocks())
	require.NoError(t, err)

	require.NoError(t, c.Delete("def"))
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.TopBlocks())
	assert.Error(t, c.Delete("def"))
}

func TestScriptsWithHat(t *testing.T) {
	c, err := FromBlocks([]ir.Block{
		{ID: "h1", Opcode: "event_whenflagclicked", TopLevel: true},
		{ID: "h2", Opcode: "event_whenbroadcastreceived", TopLevel: true},
		{ID: "h3", Opcode: "event_whenflagclicked", TopLevel: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"h1", "h3"}, c.ScriptsWithHat("event_whenflagclicked"))
}

func TestSnapshotOrder(t *testing.T) {
	c, err := FromBlocks(procedureBlocks())
	require.NoError(t, err)

	var ids []string
	for _, b := range c.Snapshot() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"def", "proto", "say"}, ids)
}

func TestForceNoGlow(t *testing.T) {
	c := New()
	assert.False(t, c.ForceNoGlow())
	c.SetForceNoGlow(true)
	assert.True(t, c.ForceNoGlow())
}
