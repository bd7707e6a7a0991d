package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const blockYAML = `
id: b1
opcode: control_repeat
inputs:
  TIMES: 10
  SUBSTACK: {block: b2}
  VALUE: {block: b3, value: 0}
fields:
  ZETA: z
  ALPHA: {value: score, id: var1}
next: b4
`

func TestBlockUnmarshalYAMLPreservesOrder(t *testing.T) {
	var b Block
	require.NoError(t, yaml.Unmarshal([]byte(blockYAML), &b))

	require.Len(t, b.Inputs, 3)
	assert.Equal(t, Input{Name: "TIMES", Value: Int(10)}, b.Inputs[0])
	assert.Equal(t, Input{Name: "SUBSTACK", Block: "b2"}, b.Inputs[1])
	assert.Equal(t, Input{Name: "VALUE", Block: "b3", Value: Int(0)}, b.Inputs[2])

	require.Len(t, b.Fields, 2)
	assert.Equal(t, "ZETA", b.Fields[0].Name, "authored order, not sorted order")
	assert.Equal(t, Field{Name: "ALPHA", Value: String("score"), ID: "var1"}, b.Fields[1])
	assert.Equal(t, "b4", b.Next)
}

func TestBlockUnmarshalJSONPreservesOrder(t *testing.T) {
	data := `{"id":"b1","opcode":"x","fields":{"Z":"z","A":{"value":1.5}},"inputs":{"N":{"block":"b2"}}}`

	var b Block
	require.NoError(t, json.Unmarshal([]byte(data), &b))

	require.Len(t, b.Fields, 2)
	assert.Equal(t, "Z", b.Fields[0].Name)
	assert.Equal(t, Float(1.5), b.Fields[1].Value)

	in, ok := b.Inputs.Get("N")
	require.True(t, ok)
	assert.True(t, in.HasBlock())
}

func TestInputsRejectDuplicateKeys(t *testing.T) {
	var in Inputs
	err := json.Unmarshal([]byte(`{"A":1,"A":2}`), &in)
	assert.Error(t, err)
}

func TestMutationAcceptsEncodedStrings(t *testing.T) {
	data := `{
		"proccode": "jump %s",
		"argumentids": "[\"a1\"]",
		"argumentnames": ["height"],
		"argumentdefaults": "[\"10\"]",
		"warp": "true"
	}`

	var m Mutation
	require.NoError(t, json.Unmarshal([]byte(data), &m))

	assert.Equal(t, StringList{"a1"}, m.ArgumentIDs)
	assert.Equal(t, StringList{"height"}, m.ArgumentNames)
	assert.Equal(t, ValueList{String("10")}, m.ArgumentDefaults)
	assert.True(t, bool(m.Warp))
	assert.False(t, bool(m.Return))
}

func TestMutationYAML(t *testing.T) {
	src := `
proccode: "jump %s"
argumentids: '["a1"]'
argumentnames: [height]
warp: "false"
return: true
`
	var m Mutation
	require.NoError(t, yaml.Unmarshal([]byte(src), &m))

	assert.Equal(t, StringList{"a1"}, m.ArgumentIDs)
	assert.False(t, bool(m.Warp))
	assert.True(t, bool(m.Return))
}

func TestFlagRejectsGarbage(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
}

func TestVariableDefaults(t *testing.T) {
	var v Variable
	require.NoError(t, yaml.Unmarshal([]byte(`name: score`), &v))

	assert.Equal(t, Variable{ID: "score", Name: "score", Value: Int(0)}, v)
}
