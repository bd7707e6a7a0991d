package primitives

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Operators holds the arithmetic, comparison, logic and text reporters.
type Operators struct{}

// Primitives implements engine.Package.
func (Operators) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"operator_add":       arith(func(x, y float64) float64 { return x + y }),
		"operator_subtract":  arith(func(x, y float64) float64 { return x - y }),
		"operator_multiply":  arith(func(x, y float64) float64 { return x * y }),
		"operator_divide":    arith(func(x, y float64) float64 { return x / y }),
		"operator_mod":       arith(mod),
		"operator_lt":        compare(func(c int) bool { return c < 0 }),
		"operator_equals":    compare(func(c int) bool { return c == 0 }),
		"operator_gt":        compare(func(c int) bool { return c > 0 }),
		"operator_and":       logic(func(x, y bool) bool { return x && y }),
		"operator_or":        logic(func(x, y bool) bool { return x || y }),
		"operator_not":       not,
		"operator_join":      join,
		"operator_length":    length,
		"operator_letter_of": letterOf,
		"operator_contains":  contains,
		"operator_round":     round,
		"operator_mathop":    mathop,
	}
}

// Hats implements engine.Package.
func (Operators) Hats() map[string]engine.HatInfo {
	return nil
}

// both evaluates two inputs left to right.
func both(a *engine.Args, x, y string, f func(ir.Value, ir.Value) ir.Value) engine.Coroutine {
	return engine.Then(a.Input(x), func(v1 ir.Value) engine.Coroutine {
		return engine.Map(a.Input(y), func(v2 ir.Value) ir.Value {
			return f(v1, v2)
		})
	})
}

func arith(op func(x, y float64) float64) engine.Primitive {
	return func(a *engine.Args, _ *engine.Util) engine.Coroutine {
		return both(a, "NUM1", "NUM2", func(x, y ir.Value) ir.Value {
			return ir.Number(op(ir.ToNumber(x), ir.ToNumber(y)))
		})
	}
}

// mod takes the sign of the divisor.
func mod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func compare(test func(int) bool) engine.Primitive {
	return func(a *engine.Args, _ *engine.Util) engine.Coroutine {
		return both(a, "OPERAND1", "OPERAND2", func(x, y ir.Value) ir.Value {
			return ir.Bool(test(ir.Compare(x, y)))
		})
	}
}

func logic(op func(x, y bool) bool) engine.Primitive {
	return func(a *engine.Args, _ *engine.Util) engine.Coroutine {
		return both(a, "OPERAND1", "OPERAND2", func(x, y ir.Value) ir.Value {
			return ir.Bool(op(ir.ToBool(x), ir.ToBool(y)))
		})
	}
}

func not(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Map(a.Input("OPERAND"), func(v ir.Value) ir.Value {
		return ir.Bool(!ir.ToBool(v))
	})
}

func join(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return both(a, "STRING1", "STRING2", func(x, y ir.Value) ir.Value {
		return ir.String(ir.ToString(x) + ir.ToString(y))
	})
}

func length(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Map(a.Input("STRING"), func(v ir.Value) ir.Value {
		return ir.Int(int64(utf8.RuneCountInString(ir.ToString(v))))
	})
}

// letterOf is 1-based; out of range gives "".
func letterOf(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return both(a, "LETTER", "STRING", func(i, s ir.Value) ir.Value {
		runes := []rune(ir.ToString(s))
		n := int(ir.ToNumber(i)) - 1
		if n < 0 || n >= len(runes) {
			return ir.String("")
		}
		return ir.String(string(runes[n]))
	})
}

func contains(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return both(a, "STRING1", "STRING2", func(x, y ir.Value) ir.Value {
		return ir.Bool(strings.Contains(strings.ToLower(ir.ToString(x)), strings.ToLower(ir.ToString(y))))
	})
}

func round(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Map(a.Input("NUM"), func(v ir.Value) ir.Value {
		return ir.Number(math.Round(ir.ToNumber(v)))
	})
}

func mathop(a *engine.Args, _ *engine.Util) engine.Coroutine {
	op := strings.ToLower(ir.ToString(a.Field("OPERATOR")))
	return engine.Map(a.Input("NUM"), func(v ir.Value) ir.Value {
		n := ir.ToNumber(v)
		switch op {
		case "abs":
			return ir.Number(math.Abs(n))
		case "floor":
			return ir.Number(math.Floor(n))
		case "ceiling":
			return ir.Number(math.Ceil(n))
		case "sqrt":
			return ir.Number(math.Sqrt(n))
		case "ln":
			return ir.Number(math.Log(n))
		case "log":
			return ir.Number(math.Log10(n))
		case "e ^":
			return ir.Number(math.Exp(n))
		case "10 ^":
			return ir.Number(math.Pow(10, n))
		}
		return ir.Int(0)
	})
}
