package primitives

import (
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Sensing holds the question and keyboard blocks. Questions go to the
// "ask" device and suspend the thread until an answer arrives.
type Sensing struct{}

// Primitives implements engine.Package.
func (Sensing) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"sensing_askandwait": askAndWait,
		"sensing_answer":     answer,
		"sensing_keypressed": keyPressed,
		"sensing_keyoptions": keyOptions,
	}
}

// Hats implements engine.Package.
func (Sensing) Hats() map[string]engine.HatInfo {
	return nil
}

// askAndWait shows the question as the target's speech and waits for the
// answer. The bubble is cleared once answered.
func askAndWait(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("QUESTION"), func(q ir.Value) engine.Coroutine {
		s, speaks := u.Target().(Speaker)
		if speaks {
			s.Say(ir.ToString(q))
		}
		return engine.Then(u.IOAwait("ask", "ask", q), func(ir.Value) engine.Coroutine {
			if speaks {
				s.Say("")
			}
			return done
		})
	})
}

func answer(_ *engine.Args, u *engine.Util) engine.Coroutine {
	v, err := u.IOQuery("ask", "getAnswer")
	if err != nil || v == nil {
		return engine.Return(ir.String(""))
	}
	return engine.Return(v)
}

func keyPressed(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("KEY_OPTION"), func(key ir.Value) engine.Coroutine {
		down, err := u.IOQuery("keyboard", "getKeyIsDown", key)
		if err != nil || down == nil {
			return engine.Return(ir.Bool(false))
		}
		return engine.Return(down)
	})
}

func keyOptions(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Return(a.Field("KEY_OPTION"))
}
