package engine

import (
	"io"
	"log/slog"
	"time"
)

// Env is the state threads share: the opcode registry, the dispatch cache,
// the time source and the collaborators that receive side effects.
type Env struct {
	registry *Registry
	cache    *Cache
	time     TimeSource
	warpTime time.Duration
	sink     ReportSink
	tracer   Tracer
	host     Host
	logger   *slog.Logger
}

// EnvOption allows configuration of an Env.
type EnvOption func(*Env)

// WithTimeSource sets the time source for warp timers.
//
// Default: SystemTime{}
func WithTimeSource(src TimeSource) EnvOption {
	return func(e *Env) {
		e.time = src
	}
}

// WithWarpTime sets the warp budget.
//
// Default: 500ms (DefaultWarpTime)
func WithWarpTime(d time.Duration) EnvOption {
	return func(e *Env) {
		e.warpTime = d
	}
}

// WithReportSink sets the receiver of stack-click reports and monitor
// updates.
func WithReportSink(s ReportSink) EnvOption {
	return func(e *Env) {
		e.sink = s
	}
}

// WithTracer sets the execution observer.
func WithTracer(t Tracer) EnvOption {
	return func(e *Env) {
		e.tracer = t
	}
}

// WithHost sets the frame driver primitives talk to.
func WithHost(h Host) EnvOption {
	return func(e *Env) {
		e.host = h
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) EnvOption {
	return func(e *Env) {
		e.logger = l
	}
}

// NewEnv creates an Env over a registry with a fresh dispatch cache.
func NewEnv(reg *Registry, opts ...EnvOption) *Env {
	e := &Env{
		registry: reg,
		cache:    NewCache(reg),
		time:     SystemTime{},
		warpTime: DefaultWarpTime,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetHost installs the host after construction. The runtime and its Env
// refer to each other, so one side is wired late.
func (e *Env) SetHost(h Host) {
	e.host = h
}

// Registry returns the opcode registry.
func (e *Env) Registry() *Registry { return e.registry }

// Cache returns the dispatch cache.
func (e *Env) Cache() *Cache { return e.cache }

// Time returns the time source.
func (e *Env) Time() TimeSource { return e.time }

// WarpTime returns the warp budget.
func (e *Env) WarpTime() time.Duration { return e.warpTime }

// Logger returns the logger.
func (e *Env) Logger() *slog.Logger { return e.logger }

func (e *Env) trace(ev TraceEvent) {
	if e.tracer != nil {
		e.tracer.Trace(ev)
	}
}
