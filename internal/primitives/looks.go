package primitives

import (
	"math"
	"time"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Looks holds the speech blocks. Rendering is not modelled; targets keep
// the current text.
type Looks struct{}

// Primitives implements engine.Package.
func (Looks) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"looks_say":          say,
		"looks_sayforsecs":   sayForSecs,
		"looks_think":        say,
		"looks_thinkforsecs": sayForSecs,
	}
}

// Hats implements engine.Package.
func (Looks) Hats() map[string]engine.HatInfo {
	return nil
}

func say(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("MESSAGE"), func(v ir.Value) engine.Coroutine {
		if s, ok := u.Target().(Speaker); ok {
			s.Say(ir.ToString(v))
		}
		return done
	})
}

// sayForSecs shows the message, waits SECS seconds, then clears it.
func sayForSecs(a *engine.Args, u *engine.Util) engine.Coroutine {
	s, _ := u.Target().(Speaker)
	return engine.Then(a.Input("MESSAGE"), func(msg ir.Value) engine.Coroutine {
		return engine.Then(a.Input("SECS"), func(secs ir.Value) engine.Coroutine {
			if s != nil {
				s.Say(ir.ToString(msg))
			}
			d := time.Duration(math.Max(0, ir.ToNumber(secs)) * float64(time.Second))
			timer := u.StartTimer()
			more := func() engine.Coroutine {
				return engine.Return(ir.Bool(timer.Elapsed() < d))
			}
			waited := engine.Then(u.Yield(), func(ir.Value) engine.Coroutine {
				return loop(u, more, func() engine.Coroutine { return done })
			})
			return engine.Then(waited, func(ir.Value) engine.Coroutine {
				if s != nil {
					s.Say("")
				}
				return done
			})
		})
	})
}
