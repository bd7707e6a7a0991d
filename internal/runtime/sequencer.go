package runtime

import (
	"context"
	"slices"
	"time"

	"github.com/roach88/blockvm/internal/engine"
	"github.com/roach88/blockvm/internal/ir"
)

// FrameStats summarizes one frame.
type FrameStats struct {
	Frame   int64
	Passes  int
	Steps   int
	Threads int
}

// Enqueue submits a request for the next frame.
// Thread-safe: may be called from any goroutine.
// Returns false once the runtime has been stopped.
func (r *Runtime) Enqueue(req Request) bool {
	return r.queue.Enqueue(req)
}

// Stop makes Run return after draining pending requests.
// Thread-safe.
func (r *Runtime) Stop() {
	r.queue.Close()
}

// Run drives frames at the configured framerate until ctx is cancelled or
// Stop is called.
//
// Must be called from exactly one goroutine; every thread step and every
// request happens on it.
func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("runtime starting", "run", r.runID, "fps", r.framerate)

	ticker := time.NewTicker(r.FrameInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("runtime stopping: context cancelled", "run", r.runID, "frames", r.frame)
			r.queue.Close()
			return ctx.Err()

		case <-ticker.C:
			r.drain()
			r.StepFrame()

		case <-r.queue.Wait():
			// Requests are applied at the next frame; a closed queue
			// ends the loop once drained.
			if r.queue.Closed() {
				r.drain()
				r.logger.Info("runtime stopping: stopped", "run", r.runID, "frames", r.frame)
				return nil
			}
		}
	}
}

// RunFrames applies pending requests and steps n frames back to back,
// without waiting for the frame interval. Used by deterministic drivers.
func (r *Runtime) RunFrames(n int) []FrameStats {
	stats := make([]FrameStats, 0, n)
	for i := 0; i < n; i++ {
		r.drain()
		stats = append(stats, r.StepFrame())
	}
	return stats
}

// drain applies every pending request in arrival order.
func (r *Runtime) drain() {
	for {
		req, ok := r.queue.TryDequeue()
		if !ok {
			return
		}
		r.apply(req)
	}
}

func (r *Runtime) apply(req Request) {
	switch req.Kind {
	case RequestGreenFlag:
		r.GreenFlag()
	case RequestKeyPress:
		r.KeyPress(req.Key)
	case RequestBroadcast:
		r.Broadcast(req.Name)
	case RequestClick:
		if _, err := r.ToggleScript(req.Target, req.Block); err != nil {
			r.logger.Warn("click ignored", "target", req.Target, "block", req.Block, "error", err)
		}
	case RequestStopAll:
		r.StopAll()
	case RequestAnswer:
		if !r.asker.Answer(req.Text) {
			r.logger.Warn("answer ignored: no question pending", "text", req.Text)
		}
	default:
		r.logger.Warn("unknown request", "kind", req.Kind)
	}
}

// StepFrame runs one frame: edge-activated hats and monitors are started,
// YieldTick threads are re-armed, then the thread list is stepped pass
// after pass while some thread still has work, the work time lasts, the
// pass cap allows it, and no redraw was requested (unless in turbo mode).
func (r *Runtime) StepFrame() FrameStats {
	r.frame++
	r.redraw = false

	for _, op := range r.registry.EdgeActivatedHats() {
		r.StartHats(op, nil, nil)
	}
	r.startMonitors()

	for _, th := range r.threads {
		th.BeginTick()
	}

	stats := FrameStats{Frame: r.frame}
	timer := engine.StartTimer(r.clock)
	active := -1
	for active != 0 &&
		timer.Elapsed() < r.workTime &&
		(r.maxPasses <= 0 || stats.Passes < r.maxPasses) &&
		(r.turbo || !r.redraw) {

		// Threads started during the pass are appended and stepped in it.
		for i := 0; i < len(r.threads); i++ {
			th := r.threads[i]
			if th.Status() == engine.StatusDone {
				continue
			}
			stats.Steps++
			if err := th.Step(); err != nil {
				r.threadFailed(th, err)
			}
		}
		r.threads = slices.DeleteFunc(r.threads, func(th *engine.Thread) bool {
			return th.Status() == engine.StatusDone
		})
		active = runnable(r.threads)
		stats.Passes++
	}

	stats.Threads = len(r.threads)
	return stats
}

// runnable counts threads another pass would advance: those that yielded
// and those started or restarted in place after their slot was stepped.
func runnable(threads []*engine.Thread) int {
	n := 0
	for _, th := range threads {
		switch th.Status() {
		case engine.StatusYield, engine.StatusRunning:
			n++
		}
	}
	return n
}

// startMonitors starts an update thread for every watched block that has
// none running.
func (r *Runtime) startMonitors() {
	for _, m := range r.monitors {
		if !slices.Contains(r.targets, m.target) {
			continue
		}
		id := ir.ThreadID(m.target.ID(), m.blockID)
		running := slices.ContainsFunc(r.threads, func(th *engine.Thread) bool {
			return th.ID() == id && th.IsUpdateMonitor() && th.Status() != engine.StatusDone
		})
		if !running {
			r.threads = append(r.threads, r.newThread(m.target, m.blockID, engine.UpdateMonitor()))
		}
	}
}

func (r *Runtime) threadFailed(th *engine.Thread, err error) {
	r.logger.Error("thread failed",
		"thread", th.ID(),
		"target", th.Target().Name(),
		"block", th.TopBlock(),
		"frame", r.frame,
		"error", err,
	)
	r.record(EventError, th.ID(), th.TopBlock(), nil, err.Error())
}
