package engine

import (
	"slices"
	"sync"
)

// Primitive implements one opcode. It receives the block's arguments and
// the execution handle, and returns the coroutine that does the work.
// Returning nil is the same as returning Return(nil).
type Primitive func(args *Args, u *Util) Coroutine

// HatInfo classifies a hat opcode.
type HatInfo struct {
	// RestartExistingThreads restarts a running thread for the same
	// script instead of leaving it alone when the hat is triggered again.
	RestartExistingThreads bool

	// EdgeActivated hats fire only on a false to true transition of their
	// predicate, remembered per target and block.
	EdgeActivated bool
}

// Package is a library of primitives and hats registered together.
type Package interface {
	Primitives() map[string]Primitive
	Hats() map[string]HatInfo
}

// Registry maps opcodes to primitives and hat classifications.
// Safe for concurrent use; registration normally happens once at startup.
type Registry struct {
	mu         sync.RWMutex
	primitives map[string]Primitive
	hats       map[string]HatInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		primitives: make(map[string]Primitive),
		hats:       make(map[string]HatInfo),
	}
}

// Register binds a primitive to an opcode, replacing any earlier binding.
func (r *Registry) Register(opcode string, p Primitive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primitives[opcode] = p
}

// RegisterHat classifies an opcode as a hat.
func (r *Registry) RegisterHat(opcode string, info HatInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hats[opcode] = info
}

// Load registers every primitive and hat of a package.
func (r *Registry) Load(pkgs ...Package) {
	for _, pkg := range pkgs {
		for op, p := range pkg.Primitives() {
			r.Register(op, p)
		}
		for op, info := range pkg.Hats() {
			r.RegisterHat(op, info)
		}
	}
}

// Primitive returns the primitive for an opcode.
func (r *Registry) Primitive(opcode string) (Primitive, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.primitives[opcode]
	return p, ok
}

// Hat returns the hat classification for an opcode.
func (r *Registry) Hat(opcode string) (HatInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.hats[opcode]
	return info, ok
}

// EdgeActivatedHats returns the edge-activated hat opcodes in sorted order.
// The frame driver starts these every frame so their predicates are polled.
func (r *Registry) EdgeActivatedHats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ops []string
	for op, info := range r.hats {
		if info.EdgeActivated {
			ops = append(ops, op)
		}
	}
	slices.Sort(ops)
	return ops
}
