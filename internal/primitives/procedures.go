package primitives

import (
	"strings"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Procedures holds custom block definitions, calls, returns and argument
// reporters.
type Procedures struct{}

// Primitives implements engine.Package.
func (Procedures) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"procedures_definition":           definition,
		"procedures_call":                 call,
		"procedures_return":               procReturn,
		"argument_reporter_string_number": argumentStringNumber,
		"argument_reporter_boolean":       argumentBoolean,
	}
}

// Hats implements engine.Package.
func (Procedures) Hats() map[string]engine.HatInfo {
	return nil
}

func definition(*engine.Args, *engine.Util) engine.Coroutine {
	return nil
}

// call binds arguments by the signature's IDs, falling back to the
// declared defaults, and runs the procedure. A call to a missing
// definition does nothing; as a reporter it reports "".
func call(a *engine.Args, u *engine.Util) engine.Coroutine {
	m := a.Mutation()
	sig, ok := u.ProcedureSignature(m.ProcCode)
	if !ok {
		if m.Return {
			return engine.Return(ir.String(""))
		}
		return nil
	}
	return bindParams(a, sig, 0, make(map[string]ir.Value, len(sig.Names)), func(params map[string]ir.Value) engine.Coroutine {
		return u.StartProcedure(m.ProcCode, params)
	})
}

func bindParams(a *engine.Args, sig ir.ProcedureSignature, i int, params map[string]ir.Value, k func(map[string]ir.Value) engine.Coroutine) engine.Coroutine {
	for ; i < len(sig.IDs); i++ {
		name := sig.IDs[i]
		if i < len(sig.Names) {
			name = sig.Names[i]
		}
		if a.Has(sig.IDs[i]) {
			next := i + 1
			return engine.Then(a.Input(sig.IDs[i]), func(v ir.Value) engine.Coroutine {
				params[name] = v
				return bindParams(a, sig, next, params, k)
			})
		}
		if i < len(sig.Defaults) {
			params[name] = sig.Defaults[i]
		} else {
			params[name] = ir.String("")
		}
	}
	return k(params)
}

func procReturn(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("VALUE"), u.Return)
}

func argumentStringNumber(a *engine.Args, u *engine.Util) engine.Coroutine {
	name := ir.ToString(a.Field("VALUE"))
	if v, ok := u.GetParam(name); ok {
		return engine.Return(v)
	}
	if strings.EqualFold(name, "last key pressed") {
		key, err := u.IOQuery("keyboard", "getLastKeyPressed")
		if err != nil || key == nil {
			return engine.Return(ir.String(""))
		}
		return engine.Return(key)
	}
	return engine.Return(ir.Int(0))
}

func argumentBoolean(a *engine.Args, u *engine.Util) engine.Coroutine {
	name := ir.ToString(a.Field("VALUE"))
	if v, ok := u.GetParam(name); ok {
		return engine.Return(v)
	}
	switch strings.ToLower(name) {
	case "is compiled?":
		return engine.Return(ir.Bool(false))
	case "is turbowarp?":
		return engine.Return(ir.Bool(true))
	}
	return engine.Return(ir.Int(0))
}
