package runtime

import (
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// Event kinds the runtime adds to the engine's trace kinds.
const (
	EventThreadStart = "thread_start"
	EventError       = "error"
)

// Event is one trace event of a run, stamped with its run, logical
// sequence number and frame. ID is content-addressed over the run,
// sequence, kind, thread, block and value.
type Event struct {
	ID       string   `json:"id"`
	RunID    string   `json:"run_id"`
	Seq      int64    `json:"seq"`
	Frame    int64    `json:"frame"`
	Kind     string   `json:"kind"`
	ThreadID string   `json:"thread_id"`
	BlockID  string   `json:"block_id,omitempty"`
	Value    ir.Value `json:"value,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

// Recorder receives every trace event of a run, in sequence order, on the
// frame loop goroutine.
type Recorder interface {
	Record(ev Event) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ev Event) error

// Record calls f.
func (f RecorderFunc) Record(ev Event) error {
	return f(ev)
}

// Trace implements engine.Tracer.
func (r *Runtime) Trace(ev engine.TraceEvent) {
	r.record(string(ev.Kind), ev.ThreadID, ev.BlockID, ev.Value, ev.Detail)
}

func (r *Runtime) record(kind, threadID, blockID string, v ir.Value, detail string) {
	if len(r.recorders) == 0 {
		return
	}
	seq := r.seq.Next()
	id, err := ir.EventID(r.runID, seq, kind, threadID, blockID, v)
	if err != nil {
		// Non-finite numbers have no canonical form; hash their text.
		v = ir.String(ir.ToString(v))
		id = ir.MustEventID(r.runID, seq, kind, threadID, blockID, v)
	}
	ev := Event{
		ID:       id,
		RunID:    r.runID,
		Seq:      seq,
		Frame:    r.frame,
		Kind:     kind,
		ThreadID: threadID,
		BlockID:  blockID,
		Value:    v,
		Detail:   detail,
	}
	for _, rec := range r.recorders {
		if err := rec.Record(ev); err != nil {
			r.logger.Error("recording event failed",
				"run", r.runID,
				"seq", seq,
				"kind", kind,
				"error", err,
			)
		}
	}
}
