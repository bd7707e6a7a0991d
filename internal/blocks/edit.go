package blocks

import (
	"fmt"

	"github.com/roach88/blockvm/internal/ir"
)

// Structural edits. Each successful edit bumps the generation.

// Create adds a block. A block with TopLevel set starts a script.
func (c *Container) Create(b ir.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.addLocked(b); err != nil {
		return err
	}
	c.generation.Add(1)
	return nil
}

func (c *Container) add(b ir.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(b)
}

func (c *Container) addLocked(b ir.Block) error {
	if b.ID == "" {
		return fmt.Errorf("block has no id")
	}
	if _, exists := c.blocks[b.ID]; exists {
		return fmt.Errorf("duplicate block id %q", b.ID)
	}
	cp := b
	c.blocks[b.ID] = &cp
	if b.TopLevel {
		c.topBlocks = append(c.topBlocks, b.ID)
	}
	return nil
}

// Delete removes a block together with its input subtrees and the rest of
// its chain.
func (c *Container) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blocks[id]; !ok {
		return fmt.Errorf("block %q not found", id)
	}
	c.deleteLocked(id, make(map[string]bool))
	c.generation.Add(1)
	return nil
}

func (c *Container) deleteLocked(id string, seen map[string]bool) {
	b, ok := c.blocks[id]
	if !ok || seen[id] {
		return
	}
	seen[id] = true
	for _, in := range b.Inputs {
		if in.HasBlock() {
			c.deleteLocked(in.Block, seen)
		}
	}
	if b.Next != "" {
		c.deleteLocked(b.Next, seen)
	}
	delete(c.blocks, id)
	for i, top := range c.topBlocks {
		if top == id {
			c.topBlocks = append(c.topBlocks[:i], c.topBlocks[i+1:]...)
			break
		}
	}
}

// ChangeField sets a field's value, adding the field if absent.
func (c *Container) ChangeField(id, name string, v ir.Value) error {
	return c.edit(id, func(b *ir.Block) {
		fields := append(ir.Fields(nil), b.Fields...)
		for i := range fields {
			if fields[i].Name == name {
				fields[i].Value = v
				b.Fields = fields
				return
			}
		}
		b.Fields = append(fields, ir.Field{Name: name, Value: v})
	})
}

// ChangeMutation replaces a block's mutation.
func (c *Container) ChangeMutation(id string, m ir.Mutation) error {
	return c.edit(id, func(b *ir.Block) {
		b.Mutation = &m
	})
}

// SetNext relinks a block's chain continuation. An empty next ends the
// chain at this block.
func (c *Container) SetNext(id, next string) error {
	return c.edit(id, func(b *ir.Block) {
		b.Next = next
	})
}

// SetInput replaces or adds an input.
func (c *Container) SetInput(id string, in ir.Input) error {
	return c.edit(id, func(b *ir.Block) {
		inputs := append(ir.Inputs(nil), b.Inputs...)
		for i := range inputs {
			if inputs[i].Name == in.Name {
				inputs[i] = in
				b.Inputs = inputs
				return
			}
		}
		b.Inputs = append(inputs, in)
	})
}

// edit applies fn to a copy of the block and publishes the copy, so a
// reader holding the old pointer never sees a half-applied change.
func (c *Container) edit(id string, fn func(*ir.Block)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("block %q not found", id)
	}
	cp := *b
	fn(&cp)
	c.blocks[id] = &cp
	c.generation.Add(1)
	return nil
}
