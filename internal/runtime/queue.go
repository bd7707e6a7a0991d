package runtime

import "sync"

// RequestKind distinguishes external requests.
type RequestKind int

const (
	// RequestGreenFlag stops everything and starts the flag hats.
	RequestGreenFlag RequestKind = iota + 1
	// RequestKeyPress records a key and starts the key hats.
	RequestKeyPress
	// RequestBroadcast starts the receivers of a message.
	RequestBroadcast
	// RequestClick toggles a script on a target, as a stack click.
	RequestClick
	// RequestStopAll stops every thread.
	RequestStopAll
	// RequestAnswer answers the oldest pending question.
	RequestAnswer
)

// Request is an input from outside the frame loop: a user action, a test
// driver, or a CLI flag.
type Request struct {
	Kind   RequestKind
	Target string
	Block  string
	Key    string
	Name   string
	Text   string
}

// requestQueue is a thread-safe FIFO of requests.
//
// Requests arrive from any goroutine; the frame loop drains the queue at
// the start of every frame. A buffered signal channel lets Run wait on the
// queue and the frame ticker in one select.
type requestQueue struct {
	mu       sync.Mutex
	requests []Request
	closed   bool
	signal   chan struct{} // buffered, size 1
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		requests: make([]Request, 0, 16),
		signal:   make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return Request{}, false
	}
	r := q.requests[0]
	q.requests[0] = Request{}
	if len(q.requests) == 1 {
		q.requests = q.requests[:0]
	} else {
		q.requests = q.requests[1:]
	}
	return r, true
}

// Wait returns a channel that fires when requests may be available, and
// stays ready once the queue is closed.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending requests.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Closed reports whether Close was called.
func (q *requestQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting requests and wakes waiters. Pending requests can
// still be drained.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
