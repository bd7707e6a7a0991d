package engine

import (
	"sync"

	"github.com/roach88/blockvm/internal/ir"
)

// Future is a pending external result. Primitives return one through
// Await; whoever owns the computation settles it exactly once with
// Resolve or Reject, from any goroutine.
type Future struct {
	mu        sync.Mutex
	settled   bool
	value     ir.Value
	err       error
	callbacks []func(ir.Value, error)
}

// NewFuture returns an unsettled future.
func NewFuture() *Future {
	return &Future{}
}

// Resolved returns a future already settled with v.
func Resolved(v ir.Value) *Future {
	return &Future{settled: true, value: v}
}

// Go runs fn on a new goroutine and settles the future with its outcome.
func Go(fn func() (ir.Value, error)) *Future {
	f := NewFuture()
	go func() {
		v, err := fn()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolve settles the future with a value. Later settlements are ignored.
func (f *Future) Resolve(v ir.Value) {
	f.settle(v, nil)
}

// Reject settles the future with a failure. Later settlements are ignored.
func (f *Future) Reject(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(v ir.Value, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Then registers cb to run on settlement. If the future has already
// settled, cb runs immediately on the calling goroutine.
func (f *Future) Then(cb func(ir.Value, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	cb(v, err)
}

// Settled reports whether the future has a result.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}
