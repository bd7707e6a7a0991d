package primitives

import (
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// All returns every package in this library.
func All() []engine.Package {
	return []engine.Package{
		NewControl(),
		Events{},
		Procedures{},
		Operators{},
		Data{},
		Looks{},
		Sensing{},
	}
}

// NewRegistry returns a registry with the whole library loaded.
func NewRegistry() *engine.Registry {
	reg := engine.NewRegistry()
	reg.Load(All()...)
	return reg
}

// VariableStore is implemented by targets that own variables.
// LookupOrCreateVariable resolves by ID first, then by name, and creates
// the variable on the target when neither matches.
type VariableStore interface {
	LookupOrCreateVariable(id, name string) *ir.Variable
}

// Speaker is implemented by targets that show speech bubbles.
type Speaker interface {
	Say(text string)
}

// Cloner is implemented by targets that can be cloned.
type Cloner interface {
	// CreateClone clones the named sprite, or this target for "_myself_".
	// Reports whether a clone was made.
	CreateClone(option string) bool
	// DeleteClone removes this target if it is a clone.
	DeleteClone()
}

var done = engine.Return(nil)

// loop runs body, then yields, for as long as more reports true.
// more is checked before every iteration.
func loop(u *engine.Util, more func() engine.Coroutine, body func() engine.Coroutine) engine.Coroutine {
	return engine.Then(more(), func(ok ir.Value) engine.Coroutine {
		if !ir.ToBool(ok) {
			return done
		}
		return engine.Then(engine.Seq(body(), u.Yield()), func(ir.Value) engine.Coroutine {
			return loop(u, more, body)
		})
	})
}

// substack returns the branch input, or a completed coroutine when the
// branch is empty.
func substack(a *engine.Args, name string) func() engine.Coroutine {
	return func() engine.Coroutine {
		if !a.Has(name) {
			return done
		}
		return a.Input(name)
	}
}

func always() engine.Coroutine {
	return engine.Return(ir.Bool(true))
}
