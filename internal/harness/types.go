package harness

import (
	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
	"github.com/roach88/blockvm/internal/runtime"
)

// TraceEvent is a run event stripped of its run-specific identity, so
// traces compare across run IDs.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Frame    int64    `json:"frame"`
	Kind     string   `json:"kind"`
	ThreadID string   `json:"thread_id"`
	BlockID  string   `json:"block_id,omitempty"`
	Value    ir.Value `json:"value,omitempty"`
	Detail   string   `json:"detail,omitempty"`
}

func traceEvent(ev runtime.Event) TraceEvent {
	return TraceEvent{
		Seq:      ev.Seq,
		Frame:    ev.Frame,
		Kind:     ev.Kind,
		ThreadID: ev.ThreadID,
		BlockID:  ev.BlockID,
		Value:    ev.Value,
		Detail:   ev.Detail,
	}
}

// Report is a value shown by a stack click or a monitor.
type Report struct {
	BlockID string   `json:"block_id"`
	Value   ir.Value `json:"value"`
	Monitor bool     `json:"monitor,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	RunID  string `json:"run_id"`
	Frames int64  `json:"frames"`

	// Trace holds every recorded event in sequence order.
	Trace []TraceEvent `json:"trace"`

	Reports []Report `json:"reports,omitempty"`

	// Variables is the final snapshot: target name to variable name to
	// value.
	Variables map[string]map[string]ir.Value `json:"variables,omitempty"`

	// Saying maps target names to their speech bubbles, for targets that
	// show one.
	Saying map[string]string `json:"saying,omitempty"`

	// Threads is the number of threads still running at the end.
	Threads int `json:"threads"`

	// Errors contains assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Variables: make(map[string]map[string]ir.Value),
		Saying:    make(map[string]string),
		Errors:    []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// reportCollector implements engine.ReportSink.
type reportCollector struct {
	reports []Report
}

func (c *reportCollector) ReportValue(blockID string, v ir.Value) {
	c.reports = append(c.reports, Report{BlockID: blockID, Value: v})
}

func (c *reportCollector) RequestUpdateMonitor(u engine.MonitorUpdate) {
	c.reports = append(c.reports, Report{BlockID: u.ID, Value: u.Value, Monitor: true})
}
