// Package blocks provides the in-memory block-graph container a target
// owns. It serves block lookups and procedure metadata to the engine and
// applies structural edits, bumping a generation counter on each one so
// the engine's dispatch cache knows to rebuild.
package blocks

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/blockvm/internal/ir"
)

const (
	opProcedureDefinition = "procedures_definition"
	opProcedurePrototype  = "procedures_prototype"
	inputCustomBlock      = "custom_block"
)

// Container holds the blocks of one target.
//
// Thread-safety: safe for concurrent use. Reads take a shared lock; edits
// take the exclusive lock and bump the generation.
type Container struct {
	mu          sync.RWMutex
	blocks      map[string]*ir.Block
	topBlocks   []string
	procDefs    map[string]string
	procProtos  map[string]string
	indexedAt   uint64
	forceNoGlow atomic.Bool
	generation  atomic.Uint64
}

// New creates an empty container.
func New() *Container {
	return &Container{blocks: make(map[string]*ir.Block)}
}

// FromBlocks creates a container holding copies of bs. Top-level order
// follows bs.
func FromBlocks(bs []ir.Block) (*Container, error) {
	c := New()
	for _, b := range bs {
		if err := c.add(b); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetBlock returns the block with the given ID. The returned block is
// owned by the container and must not be modified.
func (c *Container) GetBlock(id string) (*ir.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[id]
	return b, ok
}

// Len returns the number of blocks.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// TopBlocks returns the IDs of top-level blocks in insertion order.
func (c *Container) TopBlocks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.topBlocks...)
}

// ScriptsWithHat returns the top-level blocks whose opcode is op.
func (c *Container) ScriptsWithHat(op string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var ids []string
	for _, id := range c.topBlocks {
		if b := c.blocks[id]; b != nil && b.Opcode == op {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns copies of every block, top-level scripts first.
func (c *Container) Snapshot() []ir.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ir.Block, 0, len(c.blocks))
	seen := make(map[string]bool, len(c.blocks))
	var visit func(id string)
	visit = func(id string) {
		b, ok := c.blocks[id]
		if !ok || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, *b)
		for _, in := range b.Inputs {
			if in.HasBlock() {
				visit(in.Block)
			}
		}
		visit(b.Next)
	}
	for _, id := range c.topBlocks {
		visit(id)
	}
	return out
}

// Generation returns the edit counter.
func (c *Container) Generation() uint64 {
	return c.generation.Load()
}

// ForceNoGlow reports whether highlighting is suppressed.
func (c *Container) ForceNoGlow() bool {
	return c.forceNoGlow.Load()
}

// SetForceNoGlow suppresses or restores highlighting.
func (c *Container) SetForceNoGlow(v bool) {
	c.forceNoGlow.Store(v)
}

// GetProcedureDefinition returns the ID of the definition block whose
// prototype declares procCode.
func (c *Container) GetProcedureDefinition(procCode string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reindex()
	id, ok := c.procDefs[procCode]
	return id, ok
}

// GetProcedureParamNamesIdsAndDefaults returns the signature declared by
// the prototype for procCode. Missing defaults are the empty string.
func (c *Container) GetProcedureParamNamesIdsAndDefaults(procCode string) (ir.ProcedureSignature, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reindex()
	protoID, ok := c.procProtos[procCode]
	if !ok {
		return ir.ProcedureSignature{}, false
	}
	m := c.blocks[protoID].Mutation

	sig := ir.ProcedureSignature{
		Names: append([]string(nil), m.ArgumentNames...),
		IDs:   append([]string(nil), m.ArgumentIDs...),
	}
	sig.Defaults = make([]ir.Value, len(sig.IDs))
	for i := range sig.Defaults {
		sig.Defaults[i] = ir.String("")
		if i < len(m.ArgumentDefaults) && m.ArgumentDefaults[i] != nil {
			sig.Defaults[i] = m.ArgumentDefaults[i]
		}
	}
	return sig, true
}

// reindex rebuilds the procedure lookup tables when the generation moved.
// Caller holds the exclusive lock.
func (c *Container) reindex() {
	gen := c.generation.Load()
	if c.procDefs != nil && c.indexedAt == gen {
		return
	}
	c.procDefs = make(map[string]string)
	c.procProtos = make(map[string]string)
	for id, b := range c.blocks {
		if b.Opcode == opProcedurePrototype && b.Mutation != nil {
			c.procProtos[b.Mutation.ProcCode] = id
		}
	}
	for id, b := range c.blocks {
		if b.Opcode != opProcedureDefinition {
			continue
		}
		in, ok := b.Inputs.Get(inputCustomBlock)
		if !ok || !in.HasBlock() {
			continue
		}
		proto, ok := c.blocks[in.Block]
		if !ok || proto.Mutation == nil {
			continue
		}
		c.procDefs[proto.Mutation.ProcCode] = id
	}
	c.indexedAt = gen
}
