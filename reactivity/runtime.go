// Package reactivity implements a reactive effect engine: effects declare
// side-effecting computations whose re-execution is driven by reads and
// writes of tracked properties on arbitrary objects. A proxy layer reports
// reads through Track and mutations through Trigger; the engine records
// which properties each effect read and re-runs exactly the effects whose
// inputs changed.
package reactivity

import "log"

// WarnFunc is the injected warning channel. The engine reports misuse
// (running a stopped scope, a cleanup with no active scope) and failing
// scope cleanups through it and nothing else.
type WarnFunc func(format string, args ...any)

type RuntimeOptions struct {
	// OnWarn receives misuse warnings and scope cleanup failures. Nil
	// falls back to log.Printf.
	OnWarn WarnFunc
	// Debug enables the per-effect OnTrack/OnTrigger callbacks. When
	// false the runtime never assembles debugger events.
	Debug bool
}

// Runtime is the execution context: the tracking registry plus the state
// that, in the original design, lived in process globals. One Runtime
// assumes a single goroutine driving it; concurrent use needs one Runtime
// per goroutine or external serialization.
type Runtime struct {
	targetMap map[any]*keyDeps

	activeEffect *ReactiveEffect
	activeScope  *EffectScope

	shouldTrack      bool
	trackStack       []bool
	effectTrackDepth int
	trackOpBit       uint32

	debug bool
	warn  WarnFunc
}

func CreateRuntime(opts RuntimeOptions) *Runtime {
	warn := opts.OnWarn
	if warn == nil {
		warn = log.Printf
	}
	return &Runtime{
		targetMap:   map[any]*keyDeps{},
		shouldTrack: true,
		trackOpBit:  1,
		debug:       opts.Debug,
		warn:        warn,
	}
}

// keyDeps is the key → Dep index for one target. Keys keep first-seen
// order so a CLEAR fans out in registration order.
type keyDeps struct {
	deps  map[any]*Dep
	order []any
}

func newKeyDeps() *keyDeps {
	return &keyDeps{deps: map[any]*Dep{}}
}

func (kd *keyDeps) get(key any) *Dep {
	return kd.deps[key]
}

func (kd *keyDeps) getOrCreate(key any) *Dep {
	dep := kd.deps[key]
	if dep == nil {
		dep = NewDep()
		kd.deps[key] = dep
		kd.order = append(kd.order, key)
	}
	return dep
}

// GetDepFromReactive returns the Dep recorded for (target, key), if any.
func (rs *Runtime) GetDepFromReactive(target, key any) *Dep {
	if kd := rs.targetMap[target]; kd != nil {
		return kd.get(key)
	}
	return nil
}

// Unregister drops every Dep recorded for target. The registry holds
// targets strongly, so the proxy layer calls this at object teardown to
// let the target be collected. Effects keep whatever subscriptions they
// already hold; their next run reconciles as usual.
func (rs *Runtime) Unregister(target any) {
	delete(rs.targetMap, target)
}
