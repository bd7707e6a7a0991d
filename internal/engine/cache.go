package engine

import (
	"sync"
	"sync/atomic"

	"github.com/roach88/blockvm/internal/ir"
)

// Thunk produces the coroutine for one block input. Thunks are built once
// per cache entry and shared by every thread running the script; they hold
// no thread state.
type Thunk func(u *Util) Coroutine

// Entry is the compiled dispatch decision for one block. Entries are
// immutable once published.
type Entry struct {
	ID            string
	Opcode        string
	Next          string
	IsHat         bool
	EdgeActivated bool
	Shadow        bool
	Generation    uint64

	fn       Primitive
	literal  ir.Value
	fields   ir.Fields
	inputs   map[string]Thunk
	order    []string
	mutation *ir.Mutation
}

// HasFunction reports whether the entry dispatches to a primitive.
func (e *Entry) HasFunction() bool {
	return e.fn != nil
}

// arena holds every entry compiled for one container generation.
// A lookup against a newer generation discards the whole arena.
type arena struct {
	generation  uint64
	entries     map[string]*Entry
	chains      map[string][]*Entry
	failed      map[string]error
	chainFailed map[string]error
}

func newArena(gen uint64) *arena {
	return &arena{
		generation:  gen,
		entries:     make(map[string]*Entry),
		chains:      make(map[string][]*Entry),
		failed:      make(map[string]error),
		chainFailed: make(map[string]error),
	}
}

// Cache memoizes block dispatch per (container, block ID, generation).
//
// Thread-safety: safe for concurrent use. Entries are never mutated after
// publication, so a resumption still holding an entry from an older
// generation keeps working while newer lookups rebuild.
type Cache struct {
	registry *Registry

	mu     sync.RWMutex
	arenas map[Container]*arena

	compiles atomic.Int64
}

// NewCache creates an empty cache resolving opcodes through reg.
func NewCache(reg *Registry) *Cache {
	return &Cache{
		registry: reg,
		arenas:   make(map[Container]*arena),
	}
}

// Compiles returns how many entries have been built. Tests use it to
// observe reuse.
func (c *Cache) Compiles() int64 {
	return c.compiles.Load()
}

// Containers returns how many containers have a live arena.
func (c *Cache) Containers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.arenas)
}

// Forget drops everything cached for a container.
func (c *Cache) Forget(ct Container) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.arenas, ct)
}

// arenaFor returns the arena for the container's current generation,
// replacing a stale one.
func (c *Cache) arenaFor(ct Container) *arena {
	gen := ct.Generation()

	c.mu.RLock()
	a, ok := c.arenas[ct]
	c.mu.RUnlock()
	if ok && a.generation == gen {
		return a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok = c.arenas[ct]
	if !ok || a.generation != gen {
		a = newArena(gen)
		c.arenas[ct] = a
	}
	return a
}

// GetOrCompile returns the entry for a block, building it on first use.
// A failed build is remembered for the generation and returned again
// without retrying.
func (c *Cache) GetOrCompile(ct Container, id string) (*Entry, error) {
	a := c.arenaFor(ct)

	c.mu.RLock()
	e, ok := a.entries[id]
	err := a.failed[id]
	c.mu.RUnlock()
	if ok {
		return e, nil
	}
	if err != nil {
		return nil, err
	}

	e, err = c.compile(ct, id, a.generation)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		a.failed[id] = err
		return nil, err
	}
	if existing, ok := a.entries[id]; ok {
		return existing, nil
	}
	a.entries[id] = e
	return e, nil
}

// Chain returns the entries of the command chain starting at id, following
// next links. The slice is shared and must not be modified.
func (c *Cache) Chain(ct Container, id string) ([]*Entry, error) {
	a := c.arenaFor(ct)

	c.mu.RLock()
	chain, ok := a.chains[id]
	err := a.chainFailed[id]
	c.mu.RUnlock()
	if ok {
		return chain, nil
	}
	if err != nil {
		return nil, err
	}

	chain, err = c.walk(ct, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		a.chainFailed[id] = err
		return nil, err
	}
	if existing, ok := a.chains[id]; ok {
		return existing, nil
	}
	a.chains[id] = chain
	return chain, nil
}

func (c *Cache) walk(ct Container, start string) ([]*Entry, error) {
	var chain []*Entry
	seen := make(map[string]bool)
	for id := start; id != ""; {
		if seen[id] {
			return nil, NewChainCycleError(start, id)
		}
		seen[id] = true

		e, err := c.GetOrCompile(ct, id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, e)
		id = e.Next
	}
	return chain, nil
}

func (c *Cache) compile(ct Container, id string, gen uint64) (*Entry, error) {
	b, ok := ct.GetBlock(id)
	if !ok {
		return nil, NewMissingBlockError(id)
	}

	fn, hasFn := c.registry.Primitive(b.Opcode)
	hat, isHat := c.registry.Hat(b.Opcode)
	if !hasFn && !isHat && !b.Shadow {
		return nil, NewUnknownOpcodeError(b.ID, b.Opcode)
	}
	c.compiles.Add(1)

	e := &Entry{
		ID:            b.ID,
		Opcode:        b.Opcode,
		Next:          b.Next,
		IsHat:         isHat,
		EdgeActivated: isHat && hat.EdgeActivated,
		Shadow:        b.Shadow,
		Generation:    gen,
		fn:            fn,
		fields:        append(ir.Fields(nil), b.Fields...),
		inputs:        make(map[string]Thunk, len(b.Inputs)),
	}
	if b.Mutation != nil {
		m := *b.Mutation
		e.mutation = &m
	}
	if !hasFn && !isHat {
		e.literal = ir.String("")
		if len(b.Fields) > 0 {
			e.literal = b.Fields[0].Value
		}
	}

	for _, in := range b.Inputs {
		e.order = append(e.order, in.Name)
		if in.HasBlock() {
			e.inputs[in.Name] = blockThunk(ct, in.Block)
			continue
		}
		e.inputs[in.Name] = literalThunk(in.Value)
	}
	return e, nil
}

func blockThunk(ct Container, id string) Thunk {
	return func(u *Util) Coroutine {
		return u.thread.evaluate(ct, id, u.call)
	}
}

func literalThunk(v ir.Value) Thunk {
	co := Return(v)
	return func(*Util) Coroutine {
		return co
	}
}
