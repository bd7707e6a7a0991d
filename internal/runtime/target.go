package runtime

import (
	"sync"

	"github.com/roach88/blockvm/internal/blocks"
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Target is a program instance: the stage, a sprite, or a clone of a
// sprite. Clones share their original's blocks but own their variables
// and edge-activated hat memory.
type Target struct {
	id       string
	name     string
	stage    bool
	blocks   *blocks.Container
	rt       *Runtime
	original *Target

	mu        sync.Mutex
	variables []*ir.Variable
	edges     map[string]bool
	saying    string
}

func newTarget(rt *Runtime, id string, spec ir.TargetSpec, c *blocks.Container) *Target {
	t := &Target{
		id:     id,
		name:   spec.Name,
		stage:  spec.IsStage,
		blocks: c,
		rt:     rt,
		edges:  make(map[string]bool),
	}
	for _, v := range spec.Variables {
		v := v
		t.variables = append(t.variables, &v)
	}
	return t
}

// ID returns the target's unique ID. Originals use their name; clones get
// a generated ID.
func (t *Target) ID() string { return t.id }

// Name returns the sprite name; clones share their original's name.
func (t *Target) Name() string { return t.name }

// IsStage reports whether this is the stage.
func (t *Target) IsStage() bool { return t.stage }

// IsOriginal reports whether the target is not a clone.
func (t *Target) IsOriginal() bool { return t.original == nil }

// Blocks implements engine.Target.
func (t *Target) Blocks() engine.Container { return t.blocks }

// Container returns the target's block container for edits.
func (t *Target) Container() *blocks.Container { return t.blocks }

// HasEdgeActivatedValue implements engine.Target.
func (t *Target) HasEdgeActivatedValue(blockID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.edges[blockID]
	return ok
}

// UpdateEdgeActivatedValue implements engine.Target.
func (t *Target) UpdateEdgeActivatedValue(blockID string, v bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.edges[blockID]
	t.edges[blockID] = v
	return old
}

// LookupVariable finds a variable by ID, then by name, on this target and
// then on the stage.
func (t *Target) LookupVariable(id, name string) (*ir.Variable, bool) {
	if v, ok := t.ownVariable(id, name); ok {
		return v, true
	}
	if !t.stage && t.rt != nil {
		if stage := t.rt.Stage(); stage != nil {
			return stage.ownVariable(id, name)
		}
	}
	return nil, false
}

// LookupOrCreateVariable is LookupVariable, creating a local variable
// holding 0 when nothing matches.
func (t *Target) LookupOrCreateVariable(id, name string) *ir.Variable {
	if v, ok := t.LookupVariable(id, name); ok {
		return v
	}
	if id == "" {
		id = name
	}
	v := &ir.Variable{ID: id, Name: name, Value: ir.Int(0)}
	t.mu.Lock()
	t.variables = append(t.variables, v)
	t.mu.Unlock()
	return v
}

func (t *Target) ownVariable(id, name string) (*ir.Variable, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id != "" {
		for _, v := range t.variables {
			if v.ID == id {
				return v, true
			}
		}
	}
	for _, v := range t.variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Variables returns a snapshot of the target's own variables by name.
func (t *Target) Variables() map[string]ir.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]ir.Value, len(t.variables))
	for _, v := range t.variables {
		out[v.Name] = v.Value
	}
	return out
}

// Say sets the speech bubble text; "" clears it.
func (t *Target) Say(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saying = text
}

// Saying returns the current speech bubble text.
func (t *Target) Saying() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saying
}

// CreateClone clones the sprite named by option, or this target for
// "_myself_". The stage cannot be cloned.
func (t *Target) CreateClone(option string) bool {
	src := t
	if option != "_myself_" {
		src = t.rt.Target(option)
	}
	if src == nil || src.stage {
		return false
	}
	return t.rt.addClone(src) != nil
}

// DeleteClone disposes this target if it is a clone.
func (t *Target) DeleteClone() {
	if t.IsOriginal() {
		return
	}
	t.rt.disposeTarget(t)
}

// clone copies the target's variables into a new instance sharing its
// blocks.
func (t *Target) clone(id string) *Target {
	original := t
	if t.original != nil {
		original = t.original
	}
	c := &Target{
		id:       id,
		name:     t.name,
		blocks:   t.blocks,
		rt:       t.rt,
		original: original,
		edges:    make(map[string]bool),
	}
	t.mu.Lock()
	for _, v := range t.variables {
		cp := *v
		c.variables = append(c.variables, &cp)
	}
	t.mu.Unlock()
	return c
}
