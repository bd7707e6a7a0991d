package primitives

import (
	"strings"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Hat opcodes the runtime triggers directly.
const (
	WhenFlagClicked       = "event_whenflagclicked"
	WhenKeyPressed        = "event_whenkeypressed"
	WhenBroadcastReceived = "event_whenbroadcastreceived"
	WhenGreaterThan       = "event_whengreaterthan"
	WhenThisSpriteClicked = "event_whenthisspriteclicked"
	WhenStageClicked      = "event_whenstageclicked"
	StartAsClone          = "control_start_as_clone"
)

// Events holds the event hats and the broadcast blocks.
type Events struct{}

// Primitives implements engine.Package.
func (Events) Primitives() map[string]engine.Primitive {
	return map[string]engine.Primitive{
		"event_broadcast":        broadcast,
		"event_broadcastandwait": broadcastAndWait,
		WhenGreaterThan:          whenGreaterThan,
		"event_broadcast_menu":   broadcastMenu,
	}
}

// Hats implements engine.Package.
func (Events) Hats() map[string]engine.HatInfo {
	return map[string]engine.HatInfo{
		WhenFlagClicked:       {RestartExistingThreads: true},
		WhenKeyPressed:        {},
		WhenThisSpriteClicked: {RestartExistingThreads: true},
		WhenStageClicked:      {RestartExistingThreads: true},
		WhenGreaterThan:       {EdgeActivated: true},
		WhenBroadcastReceived: {RestartExistingThreads: true},
	}
}

// whenGreaterThan compares a sensor against VALUE. Only the project timer
// is wired; loudness has no source and never fires.
func whenGreaterThan(a *engine.Args, u *engine.Util) engine.Coroutine {
	option := strings.ToLower(ir.ToString(a.Field("WHENGREATERTHANMENU")))
	return engine.Then(a.Input("VALUE"), func(v ir.Value) engine.Coroutine {
		if option != "timer" {
			return engine.Return(ir.Bool(false))
		}
		now, err := u.IOQuery("clock", "projectTimer")
		if err != nil {
			return engine.Return(ir.Bool(false))
		}
		return engine.Return(ir.Bool(ir.ToNumber(now) > ir.ToNumber(v)))
	})
}

func broadcastMenu(a *engine.Args, _ *engine.Util) engine.Coroutine {
	return engine.Return(a.Field("BROADCAST_OPTION"))
}

// broadcastName reads a broadcast input: plain text, or an object with a
// name as produced by a broadcast menu reference.
func broadcastName(v ir.Value) string {
	if obj, ok := v.(ir.Object); ok {
		return ir.ToString(obj["name"])
	}
	return ir.ToString(v)
}

func startBroadcast(u *engine.Util, v ir.Value) []*engine.Thread {
	name := broadcastName(v)
	if name == "" {
		return nil
	}
	return u.StartHats(WhenBroadcastReceived, map[string]string{"BROADCAST_OPTION": name}, nil)
}

func broadcast(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("BROADCAST_INPUT"), func(v ir.Value) engine.Coroutine {
		startBroadcast(u, v)
		return done
	})
}

// broadcastAndWait starts the receivers and polls them every pass until
// none is still running. When every receiver is itself waiting, it waits
// for the next tick instead of spinning within this one.
func broadcastAndWait(a *engine.Args, u *engine.Util) engine.Coroutine {
	return engine.Then(a.Input("BROADCAST_INPUT"), func(v ir.Value) engine.Coroutine {
		started := startBroadcast(u, v)
		if len(started) == 0 {
			return done
		}
		var poll func() engine.Coroutine
		poll = func() engine.Coroutine {
			running, waiting := 0, 0
			for _, th := range started {
				if !u.IsActiveThread(th) {
					continue
				}
				running++
				if u.IsWaitingThread(th) {
					waiting++
				}
			}
			if running == 0 {
				return done
			}
			next := u.Yield()
			if waiting == running {
				next = u.YieldTick()
			}
			return engine.Then(next, func(ir.Value) engine.Coroutine { return poll() })
		}
		return poll()
	})
}
