package primitives

import (
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Data holds the variable blocks.
type Data struct{}

// Primitives implements engine.Package.
func (Data) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"data_variable":         variable,
		"data_setvariableto":    setVariable,
		"data_changevariableby": changeVariable,
	}
}

// Hats implements engine.Package.
func (Data) Hats() map[string]engine.HatInfo {
	return nil
}

func lookupVariable(a *engine.Args, u *engine.Util) *ir.Variable {
	store, ok := u.Target().(VariableStore)
	if !ok {
		return nil
	}
	return store.LookupOrCreateVariable(a.FieldID("VARIABLE"), ir.ToString(a.Field("VARIABLE")))
}

func variable(a *engine.Args, u *engine.Util) engine.Coroutine {
	v := lookupVariable(a, u)
	if v == nil {
		return engine.Return(ir.Int(0))
	}
	return engine.Return(v.Value)
}

func setVariable(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("VALUE"), func(val ir.Value) engine.Coroutine {
		if v := lookupVariable(a, u); v != nil {
			v.Value = val
		}
		return done
	})
}

func changeVariable(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("VALUE"), func(delta ir.Value) engine.Coroutine {
		if v := lookupVariable(a, u); v != nil {
			v.Value = ir.Number(ir.ToNumber(v.Value) + ir.ToNumber(delta))
		}
		return done
	})
}
