package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project files spell inputs and fields as mappings whose order matters
// (a shadow block reports its first field), so both decode through the
// token stream rather than into a Go map.
//
//	inputs:
//	  TIMES: 10               # literal
//	  SUBSTACK: {block: b2}   # graph-valued
//	  VALUE: {block: b3, value: 0}
//	fields:
//	  VARIABLE: {value: score, id: var1}
//	  BROADCAST_OPTION: go

// UnmarshalYAML implements yaml.Unmarshaler for Inputs.
func (in *Inputs) UnmarshalYAML(node *yaml.Node) error {
	pairs, err := yamlPairs(node, "inputs")
	if err != nil {
		return err
	}
	out := make(Inputs, 0, len(pairs))
	for _, p := range pairs {
		var raw any
		if err := p.value.Decode(&raw); err != nil {
			return fmt.Errorf("input %q: %w", p.key, err)
		}
		input, err := inputFromGo(p.key, raw)
		if err != nil {
			return err
		}
		out = append(out, input)
	}
	*in = out
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Inputs.
func (in *Inputs) UnmarshalJSON(data []byte) error {
	pairs, err := jsonPairs(data, "inputs")
	if err != nil {
		return err
	}
	out := make(Inputs, 0, len(pairs))
	for _, p := range pairs {
		input, err := inputFromGo(p.key, p.value)
		if err != nil {
			return err
		}
		out = append(out, input)
	}
	*in = out
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Fields.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	pairs, err := yamlPairs(node, "fields")
	if err != nil {
		return err
	}
	out := make(Fields, 0, len(pairs))
	for _, p := range pairs {
		var raw any
		if err := p.value.Decode(&raw); err != nil {
			return fmt.Errorf("field %q: %w", p.key, err)
		}
		field, err := fieldFromGo(p.key, raw)
		if err != nil {
			return err
		}
		out = append(out, field)
	}
	*f = out
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Fields.
func (f *Fields) UnmarshalJSON(data []byte) error {
	pairs, err := jsonPairs(data, "fields")
	if err != nil {
		return err
	}
	out := make(Fields, 0, len(pairs))
	for _, p := range pairs {
		field, err := fieldFromGo(p.key, p.value)
		if err != nil {
			return err
		}
		out = append(out, field)
	}
	*f = out
	return nil
}

func inputFromGo(name string, raw any) (Input, error) {
	if m, ok := raw.(map[string]any); ok && onlyKeys(m, "block", "value") {
		input := Input{Name: name}
		if b, ok := m["block"]; ok && b != nil {
			s, ok := b.(string)
			if !ok {
				return Input{}, fmt.Errorf("input %q: block must be a string, got %T", name, b)
			}
			input.Block = s
		}
		if v, ok := m["value"]; ok {
			val, err := FromGo(v)
			if err != nil {
				return Input{}, fmt.Errorf("input %q: %w", name, err)
			}
			input.Value = val
		}
		return input, nil
	}
	val, err := FromGo(raw)
	if err != nil {
		return Input{}, fmt.Errorf("input %q: %w", name, err)
	}
	return Input{Name: name, Value: val}, nil
}

func fieldFromGo(name string, raw any) (Field, error) {
	if m, ok := raw.(map[string]any); ok && onlyKeys(m, "value", "id") {
		field := Field{Name: name, Value: String("")}
		if id, ok := m["id"]; ok && id != nil {
			field.ID = fmt.Sprint(id)
		}
		if v, ok := m["value"]; ok {
			val, err := FromGo(v)
			if err != nil {
				return Field{}, fmt.Errorf("field %q: %w", name, err)
			}
			field.Value = val
		}
		return field, nil
	}
	val, err := FromGo(raw)
	if err != nil {
		return Field{}, fmt.Errorf("field %q: %w", name, err)
	}
	return Field{Name: name, Value: val}, nil
}

func onlyKeys(m map[string]any, allowed ...string) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type yamlPair struct {
	key   string
	value *yaml.Node
}

func yamlPairs(node *yaml.Node, what string) ([]yamlPair, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", node.Line, what)
	}
	pairs := make([]yamlPair, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("line %d: duplicate %s key %q", node.Content[i].Line, what, key)
		}
		seen[key] = true
		pairs = append(pairs, yamlPair{key: key, value: node.Content[i+1]})
	}
	return pairs, nil
}

type jsonPair struct {
	key   string
	value any
}

func jsonPairs(data []byte, what string) ([]jsonPair, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%s must be an object", what)
	}

	var pairs []jsonPair
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected key, got %v", what, tok)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate %s key %q", what, key)
		}
		seen[key] = true

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s %q: %w", what, key, err)
		}
		pairs = append(pairs, jsonPair{key: key, value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return pairs, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Flag.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: flag must be a scalar", node.Line)
	}
	return f.parse(node.Value)
}

// UnmarshalJSON implements json.Unmarshaler for Flag.
func (f *Flag) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return f.parse(s)
}

func (f *Flag) parse(s string) error {
	if s == "" || s == "null" {
		*f = false
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid flag %q", s)
	}
	*f = Flag(b)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return l.UnmarshalJSON([]byte(strconv.Quote(node.Value)))
	}
	var items []string
	if err := node.Decode(&items); err != nil {
		return err
	}
	*l = items
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for StringList.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if strings.TrimSpace(encoded) == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*l = items
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for ValueList.
func (l *ValueList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return l.UnmarshalJSON([]byte(strconv.Quote(node.Value)))
	}
	var raw []any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return l.fromGo(raw)
}

// UnmarshalJSON implements json.Unmarshaler for ValueList.
func (l *ValueList) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if strings.TrimSpace(encoded) == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("value list: %w", err)
	}
	return l.fromGo(raw)
}

func (l *ValueList) fromGo(raw []any) error {
	out := make(ValueList, len(raw))
	for i, item := range raw {
		v, err := FromGo(item)
		if err != nil {
			return fmt.Errorf("value list[%d]: %w", i, err)
		}
		out[i] = v
	}
	*l = out
	return nil
}

type variableFile struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Value any    `json:"value" yaml:"value"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Variable.
func (v *Variable) UnmarshalYAML(node *yaml.Node) error {
	var raw variableFile
	if err := node.Decode(&raw); err != nil {
		return err
	}
	return v.fromFile(raw)
}

// UnmarshalJSON implements json.Unmarshaler for Variable.
func (v *Variable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw variableFile
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	return v.fromFile(raw)
}

func (v *Variable) fromFile(raw variableFile) error {
	val := Value(Int(0))
	if raw.Value != nil {
		converted, err := FromGo(raw.Value)
		if err != nil {
			return fmt.Errorf("variable %q: %w", raw.Name, err)
		}
		val = converted
	}
	id := raw.ID
	if id == "" {
		id = raw.Name
	}
	*v = Variable{ID: id, Name: raw.Name, Value: val}
	return nil
}
