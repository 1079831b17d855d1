package reactivity

// ErrFn is the shape of user code driven by the engine.
type ErrFn func() error

// Recursion depths past this many marker bits fall back to clearing and
// rebuilding the dep list on every run. 30 keeps the masks inside a small
// integer on every runtime the protocol was designed for; raising it would
// change nothing below depth 30, so it stays.
const maxMarkerBits = 30

// ReactiveEffect wraps a user function together with the Deps it currently
// subscribes to and knows how to re-execute itself with tracking enabled.
type ReactiveEffect struct {
	rs *Runtime

	fn        ErrFn
	scheduler ErrFn

	deps   []*Dep
	parent *ReactiveEffect

	active       bool
	deferStop    bool
	computed     bool
	allowRecurse bool

	onStop    func()
	onTrack   func(DebuggerEvent)
	onTrigger func(DebuggerEvent)
}

type EffectOptions struct {
	// Lazy skips the immediate first run; the caller invokes the runner.
	Lazy bool
	// Scheduler, when set, is called at trigger time instead of Run. It
	// decides when and how the effect actually re-executes.
	Scheduler ErrFn
	// Scope overrides the currently active scope as the owner.
	Scope        *EffectScope
	AllowRecurse bool
	OnStop       func()
	// OnTrack and OnTrigger fire only on a Debug runtime.
	OnTrack   func(DebuggerEvent)
	OnTrigger func(DebuggerEvent)
}

// EffectRunner is the handle returned by Effect: invoking Run re-executes
// the effect, and Effect exposes the wrapped ReactiveEffect for
// introspection and disposal.
type EffectRunner struct {
	Effect *ReactiveEffect
}

func (r *EffectRunner) Run() error {
	return r.Effect.Run()
}

// Effect wraps fn in a ReactiveEffect, registers it with its owning scope,
// and runs it once unless opts.Lazy is set. The error from that first run,
// if any, is returned alongside the runner; the effect stays subscribed to
// whatever it read before failing.
func (rs *Runtime) Effect(fn ErrFn, opts *EffectOptions) (*EffectRunner, error) {
	e := &ReactiveEffect{rs: rs, fn: fn, active: true}
	scope := rs.activeScope
	if opts != nil {
		e.scheduler = opts.Scheduler
		e.allowRecurse = opts.AllowRecurse
		e.onStop = opts.OnStop
		e.onTrack = opts.OnTrack
		e.onTrigger = opts.OnTrigger
		if opts.Scope != nil {
			scope = opts.Scope
		}
	}
	rs.RecordEffectScope(e, scope)

	runner := &EffectRunner{Effect: e}
	if opts == nil || !opts.Lazy {
		if err := e.Run(); err != nil {
			return runner, err
		}
	}
	return runner, nil
}

// Stop disposes the effect behind the runner.
func (rs *Runtime) Stop(runner *EffectRunner) {
	runner.Effect.Stop()
}

// Run re-executes fn with tracking enabled and reconciles the dep list
// against the previous run on the way out. A stopped effect just evaluates
// fn without tracking. Errors from fn propagate after the execution
// context is restored.
func (e *ReactiveEffect) Run() error {
	if !e.active {
		return e.fn()
	}
	rs := e.rs
	for parent := rs.activeEffect; parent != nil; parent = parent.parent {
		if parent == e {
			return nil
		}
	}

	e.parent = rs.activeEffect
	lastShouldTrack := rs.shouldTrack
	rs.activeEffect = e
	rs.shouldTrack = true

	rs.effectTrackDepth++
	rs.trackOpBit = 1 << rs.effectTrackDepth

	if rs.effectTrackDepth <= maxMarkerBits {
		rs.initDepMarkers(e)
	} else {
		e.cleanup()
	}

	defer func() {
		if rs.effectTrackDepth <= maxMarkerBits {
			rs.finalizeDepMarkers(e)
		}
		rs.effectTrackDepth--
		rs.trackOpBit = 1 << rs.effectTrackDepth
		rs.activeEffect = e.parent
		rs.shouldTrack = lastShouldTrack
		e.parent = nil

		if e.deferStop {
			e.Stop()
		}
	}()

	return e.fn()
}

// Stop removes the effect from every Dep it subscribes to, fires onStop,
// and marks it inactive. Stopping the currently running effect is deferred
// until its run exits. Idempotent.
func (e *ReactiveEffect) Stop() {
	if e.rs.activeEffect == e {
		e.deferStop = true
		return
	}
	if !e.active {
		return
	}
	e.cleanup()
	if e.onStop != nil {
		e.onStop()
	}
	e.active = false
}

func (e *ReactiveEffect) cleanup() {
	for _, dep := range e.deps {
		dep.Delete(e)
	}
	e.deps = e.deps[:0]
}

// Active reports whether the effect can still be scheduled.
func (e *ReactiveEffect) Active() bool {
	return e.active
}

// Deps returns a snapshot of the Deps the effect currently subscribes to.
func (e *ReactiveEffect) Deps() []*Dep {
	out := make([]*Dep, len(e.deps))
	copy(out, e.deps)
	return out
}

// MarkComputed flags the effect as backing a computed value, moving it
// ahead of ordinary effects during trigger fan-out. Collaborators owning a
// computed call this once at construction.
func (e *ReactiveEffect) MarkComputed() {
	e.computed = true
}
