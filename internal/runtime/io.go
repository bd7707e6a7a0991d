package runtime

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Device is an IO device primitives query by name through ioQuery.
type Device interface {
	Query(fn string, args ...ir.Value) (ir.Value, error)
}

// ProjectClock is the "clock" device: the project timer, in seconds since
// the last reset.
type ProjectClock struct {
	src   engine.TimeSource
	mu    sync.Mutex
	start time.Time
}

// NewProjectClock starts the project timer now.
func NewProjectClock(src engine.TimeSource) *ProjectClock {
	return &ProjectClock{src: src, start: src.Now()}
}

// ProjectTimer returns the seconds since the last reset.
func (c *ProjectClock) ProjectTimer() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src.Now().Sub(c.start).Seconds()
}

// Reset restarts the project timer.
func (c *ProjectClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.src.Now()
}

// Query implements Device.
func (c *ProjectClock) Query(fn string, _ ...ir.Value) (ir.Value, error) {
	switch fn {
	case "projectTimer":
		return ir.Number(c.ProjectTimer()), nil
	case "resetProjectTimer":
		c.Reset()
		return nil, nil
	}
	return nil, fmt.Errorf("clock: unknown function %q", fn)
}

// Keyboard is the "keyboard" device: the last key pressed and the keys
// held down. Key names are compared case-insensitively.
type Keyboard struct {
	mu   sync.Mutex
	last string
	down map[string]bool
}

// NewKeyboard creates a keyboard with no keys pressed.
func NewKeyboard() *Keyboard {
	return &Keyboard{down: make(map[string]bool)}
}

// Post records a key going down or up.
func (k *Keyboard) Post(key string, isDown bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	key = strings.ToLower(key)
	if isDown {
		k.last = key
		k.down[key] = true
		return
	}
	delete(k.down, key)
}

// LastKeyPressed returns the most recent key that went down.
func (k *Keyboard) LastKeyPressed() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.last
}

// IsDown reports whether key is held. "any" matches any key.
func (k *Keyboard) IsDown(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	key = strings.ToLower(key)
	if key == "any" {
		return len(k.down) > 0
	}
	return k.down[key]
}

// Query implements Device.
func (k *Keyboard) Query(fn string, args ...ir.Value) (ir.Value, error) {
	switch fn {
	case "getLastKeyPressed":
		return ir.String(k.LastKeyPressed()), nil
	case "getKeyIsDown":
		if len(args) == 0 {
			return ir.Bool(false), nil
		}
		return ir.Bool(k.IsDown(ir.ToString(args[0]))), nil
	}
	return nil, fmt.Errorf("keyboard: unknown function %q", fn)
}

// AsyncDevice is a device with functions that complete later, settling
// the returned future from whichever goroutine finishes the work.
type AsyncDevice interface {
	Device
	Await(fn string, args ...ir.Value) (*engine.Future, error)
}

// Asker is the "ask" device. Questions wait in the order they were asked
// and are settled one at a time by Answer, from any goroutine.
type Asker struct {
	mu      sync.Mutex
	pending []question
	answer  string
}

type question struct {
	text   string
	future *engine.Future
}

// NewAsker creates an asker with no questions pending.
func NewAsker() *Asker {
	return &Asker{}
}

// Ask queues a question and returns the future its answer settles.
func (a *Asker) Ask(text string) *engine.Future {
	f := engine.NewFuture()
	a.mu.Lock()
	a.pending = append(a.pending, question{text: text, future: f})
	a.mu.Unlock()
	return f
}

// Answer settles the oldest pending question with text and makes it the
// current answer. Reports whether a question was waiting.
func (a *Asker) Answer(text string) bool {
	a.mu.Lock()
	if len(a.pending) == 0 {
		a.mu.Unlock()
		return false
	}
	q := a.pending[0]
	a.pending = a.pending[1:]
	a.answer = text
	a.mu.Unlock()

	// Settle outside the lock: the waiting thread is re-armed from here.
	q.future.Resolve(ir.String(text))
	return true
}

// Pending returns the unanswered questions, oldest first.
func (a *Asker) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.pending))
	for i, q := range a.pending {
		out[i] = q.text
	}
	return out
}

// LastAnswer returns the most recent answer.
func (a *Asker) LastAnswer() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.answer
}

// Clear drops every pending question. Their threads are gone after a stop
// all; a later answer must not go to them.
func (a *Asker) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil
}

// Query implements Device.
func (a *Asker) Query(fn string, _ ...ir.Value) (ir.Value, error) {
	switch fn {
	case "getAnswer":
		return ir.String(a.LastAnswer()), nil
	}
	return nil, fmt.Errorf("ask: unknown function %q", fn)
}

// Await implements AsyncDevice.
func (a *Asker) Await(fn string, args ...ir.Value) (*engine.Future, error) {
	switch fn {
	case "ask":
		text := ""
		if len(args) > 0 {
			text = ir.ToString(args[0])
		}
		return a.Ask(text), nil
	}
	return nil, fmt.Errorf("ask: unknown function %q", fn)
}
