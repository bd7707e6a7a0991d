package primitives

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Control holds the loop, branch, wait and stop blocks. The counter blocks
// share one counter per package instance.
type Control struct {
	counter atomic.Int64
}

// NewControl creates the control package with a zeroed counter.
func NewControl() *Control {
	return &Control{}
}

// Primitives implements engine.Package.
func (c *Control) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"control_repeat":            repeat,
		"control_repeat_until":      repeatUntil,
		"control_while":             repeatWhile,
		"control_for_each":          forEach,
		"control_forever":           forever,
		"control_wait":              wait,
		"control_wait_until":        waitUntil,
		"control_if":                ifThen,
		"control_if_else":           ifElse,
		"control_stop":              stop,
		"control_create_clone_of":   createClone,
		"control_delete_this_clone": deleteClone,
		"control_get_counter":       c.getCounter,
		"control_incr_counter":      c.incrCounter,
		"control_clear_counter":     c.clearCounter,
		"control_all_at_once":       allAtOnce,
	}
}

// Hats implements engine.Package.
func (c *Control) Hats() map[string]engine.HatInfo {
	return map[string]engine.HatInfo{
		"control_start_as_clone": {},
	}
}

func repeat(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("TIMES"), func(v ir.Value) engine.Coroutine {
		left := int64(math.Round(ir.ToNumber(v)))
		more := func() engine.Coroutine {
			left--
			return engine.Return(ir.Bool(left >= 0))
		}
		return loop(u, more, substack(a, "SUBSTACK"))
	})
}

func repeatUntil(a *engine.Args, u *engine.Util) engine.Coroutine {
	more := func() engine.Coroutine {
		if !a.Has("CONDITION") {
			return always()
		}
		return engine.Map(a.Input("CONDITION"), func(v ir.Value) ir.Value {
			return ir.Bool(!ir.ToBool(v))
		})
	}
	return loop(u, more, substack(a, "SUBSTACK"))
}

func repeatWhile(a *engine.Args, u *engine.Util) engine.Coroutine {
	more := func() engine.Coroutine {
		if !a.Has("CONDITION") {
			return engine.Return(ir.Bool(false))
		}
		return a.Input("CONDITION")
	}
	return loop(u, more, substack(a, "SUBSTACK"))
}

// forEach counts a variable from 1 to VALUE, running the branch each time.
func forEach(a *engine.Args, u *engine.Util) engine.Coroutine {
	store, ok := u.Target().(VariableStore)
	if !ok {
		return nil
	}
	variable := store.LookupOrCreateVariable(a.FieldID("VARIABLE"), ir.ToString(a.Field("VARIABLE")))
	return engine.Then(a.Input("VALUE"), func(v ir.Value) engine.Coroutine {
		limit := ir.ToNumber(v)
		i := 0
		more := func() engine.Coroutine {
			i++
			if float64(i) > limit {
				return engine.Return(ir.Bool(false))
			}
			variable.Value = ir.Int(int64(i))
			return always()
		}
		return loop(u, more, substack(a, "SUBSTACK"))
	})
}

func forever(a *engine.Args, u *engine.Util) engine.Coroutine {
	return loop(u, always, substack(a, "SUBSTACK"))
}

// wait always yields at least once, then until DURATION seconds have
// passed on the runtime clock.
func wait(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("DURATION"), func(v ir.Value) engine.Coroutine {
		d := time.Duration(math.Max(0, ir.ToNumber(v)) * float64(time.Second))
		timer := u.StartTimer()
		u.RequestRedraw()
		more := func() engine.Coroutine {
			return engine.Return(ir.Bool(timer.Elapsed() < d))
		}
		return engine.Then(u.Yield(), func(ir.Value) engine.Coroutine {
			return loop(u, more, func() engine.Coroutine { return done })
		})
	})
}

func waitUntil(a *engine.Args, u *engine.Util) engine.Coroutine {
	more := func() engine.Coroutine {
		return engine.Map(a.Input("CONDITION"), func(v ir.Value) ir.Value {
			return ir.Bool(!ir.ToBool(v))
		})
	}
	return loop(u, more, func() engine.Coroutine { return done })
}

// ifThen runs the branch when CONDITION holds. A true condition with an
// empty branch still yields.
func ifThen(a *engine.Args, u *engine.Util) engine.Coroutine {
	if !a.Has("CONDITION") {
		return nil
	}
	return engine.Then(a.Input("CONDITION"), func(v ir.Value) engine.Coroutine {
		if !ir.ToBool(v) {
			return done
		}
		return branch(a, u, "SUBSTACK")
	})
}

func ifElse(a *engine.Args, u *engine.Util) engine.Coroutine {
	cond := engine.Return(ir.Bool(false))
	if a.Has("CONDITION") {
		cond = a.Input("CONDITION")
	}
	return engine.Then(cond, func(v ir.Value) engine.Coroutine {
		if ir.ToBool(v) {
			return branch(a, u, "SUBSTACK")
		}
		return branch(a, u, "SUBSTACK2")
	})
}

func branch(a *engine.Args, u *engine.Util, name string) engine.Coroutine {
	if !a.Has(name) {
		return u.Yield()
	}
	return engine.Then(a.Input(name), func(ir.Value) engine.Coroutine { return done })
}

func stop(a *engine.Args, u *engine.Util) engine.Coroutine {
	switch strings.ToLower(ir.ToString(a.Field("STOP_OPTION"))) {
	case "all":
		u.StopAll()
	case "other scripts in sprite", "other scripts in stage":
		u.StopOtherTargetThreads()
	case "this script":
		return u.StopThisScript(nil)
	}
	return nil
}

func createClone(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("CLONE_OPTION"), func(v ir.Value) engine.Coroutine {
		if c, ok := u.Target().(Cloner); ok {
			c.CreateClone(ir.ToString(v))
		}
		return done
	})
}

func deleteClone(_ *engine.Args, u *engine.Util) engine.Coroutine {
	c, ok := u.Target().(Cloner)
	if !ok {
		return nil
	}
	c.DeleteClone()
	return nil
}

func (c *Control) getCounter(*engine.Args, *engine.Util) engine.Coroutine {
	return engine.Return(ir.Int(c.counter.Load()))
}

func (c *Control) incrCounter(*engine.Args, *engine.Util) engine.Coroutine {
	c.counter.Add(1)
	return nil
}

func (c *Control) clearCounter(*engine.Args, *engine.Util) engine.Coroutine {
	c.counter.Store(0)
	return nil
}

// allAtOnce runs its branch like an always-true if.
func allAtOnce(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Then(substack(a, "SUBSTACK")(), func(ir.Value) engine.Coroutine { return done })
}
