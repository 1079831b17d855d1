package reactivity

// TrackOpType classifies the read operation the proxy layer reports.
type TrackOpType int

const (
	TrackGet TrackOpType = iota + 1
	TrackHas
	TrackIterate
)

func (t TrackOpType) String() string {
	switch t {
	case TrackGet:
		return "get"
	case TrackHas:
		return "has"
	case TrackIterate:
		return "iterate"
	default:
		return "unknown"
	}
}

// DebuggerEvent is delivered to OnTrack/OnTrigger callbacks on a Debug
// runtime. Only the fields relevant to the operation are populated.
type DebuggerEvent struct {
	Effect *ReactiveEffect
	Target any
	Key    any

	TrackOp   TrackOpType
	TriggerOp TriggerOpType

	NewValue  any
	OldValue  any
	OldTarget any
}

// Track records a dependency of the active effect on (target, key). A
// no-op while tracking is paused or no effect is running.
func (rs *Runtime) Track(target any, op TrackOpType, key any) {
	if !rs.shouldTrack || rs.activeEffect == nil {
		return
	}
	kd := rs.targetMap[target]
	if kd == nil {
		kd = newKeyDeps()
		rs.targetMap[target] = kd
	}
	dep := kd.getOrCreate(key)
	if rs.debug {
		rs.trackEffects(dep, &DebuggerEvent{Target: target, TrackOp: op, Key: key})
	} else {
		rs.trackEffects(dep, nil)
	}
}

// TrackEffects subscribes the active effect to a Dep owned directly by a
// collaborator, such as a ref or computed that holds its Dep without a
// registry entry.
func (rs *Runtime) TrackEffects(dep *Dep) {
	rs.trackEffects(dep, nil)
}

func (rs *Runtime) trackEffects(dep *Dep, event *DebuggerEvent) {
	if rs.activeEffect == nil {
		return
	}
	shouldTrack := false
	if rs.effectTrackDepth <= maxMarkerBits {
		if !rs.newlyTracked(dep) {
			dep.n |= rs.trackOpBit
			// only a dep not held before this run is a new subscription
			shouldTrack = !rs.wasTracked(dep)
		}
	} else {
		shouldTrack = !dep.Has(rs.activeEffect)
	}
	if !shouldTrack {
		return
	}

	dep.Add(rs.activeEffect)
	rs.activeEffect.deps = append(rs.activeEffect.deps, dep)

	if rs.debug && rs.activeEffect.onTrack != nil {
		ev := DebuggerEvent{}
		if event != nil {
			ev = *event
		}
		ev.Effect = rs.activeEffect
		rs.activeEffect.onTrack(ev)
	}
}

// PauseTracking suspends dependency collection until a matching
// ResetTracking, shielding reads made by untrusted callbacks.
func (rs *Runtime) PauseTracking() {
	rs.trackStack = append(rs.trackStack, rs.shouldTrack)
	rs.shouldTrack = false
}

// EnableTracking turns collection back on inside a paused region.
func (rs *Runtime) EnableTracking() {
	rs.trackStack = append(rs.trackStack, rs.shouldTrack)
	rs.shouldTrack = true
}

// ResetTracking restores the collection state prior to the last
// PauseTracking or EnableTracking.
func (rs *Runtime) ResetTracking() {
	n := len(rs.trackStack)
	if n == 0 {
		rs.shouldTrack = true
		return
	}
	rs.shouldTrack = rs.trackStack[n-1]
	rs.trackStack = rs.trackStack[:n-1]
}
