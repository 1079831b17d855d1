package reactivity

import "reflect"

// TriggerOpType classifies the mutation the proxy layer reports.
type TriggerOpType int

const (
	TriggerSet TriggerOpType = iota + 1
	TriggerAdd
	TriggerDelete
	TriggerClear
)

func (t TriggerOpType) String() string {
	switch t {
	case TriggerSet:
		return "set"
	case TriggerAdd:
		return "add"
	case TriggerDelete:
		return "delete"
	case TriggerClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Trigger notifies every effect subscribed to the Deps a mutation of
// (target, key) affects. The selection widens by operation: ADD and DELETE
// on a non-array target invalidate iteration, an ADD at an array index
// invalidates length, a map SET invalidates iteration, an array length
// truncation invalidates every index at or past the new length, and CLEAR
// invalidates everything recorded for the target. The first error an
// effect or scheduler returns aborts the remaining fan-out and propagates.
func (rs *Runtime) Trigger(target any, op TriggerOpType, key, newValue, oldValue, oldTarget any) error {
	kd := rs.targetMap[target]
	if kd == nil {
		// never been tracked
		return nil
	}

	var deps []*Dep
	switch {
	case op == TriggerClear:
		for _, k := range kd.order {
			deps = append(deps, kd.deps[k])
		}
	case key == LengthKey && isArrayShaped(target):
		newLength, lengthKnown := asInt(newValue)
		for _, k := range kd.order {
			if k == LengthKey {
				deps = append(deps, kd.deps[k])
				continue
			}
			if idx, ok := asInt(k); ok && lengthKnown && idx >= newLength {
				deps = append(deps, kd.deps[k])
			}
		}
	default:
		if key != nil {
			deps = append(deps, kd.get(key))
		}
		switch op {
		case TriggerAdd:
			if !isArrayShaped(target) {
				deps = append(deps, kd.get(IterateKey))
				if isMapShaped(target) {
					deps = append(deps, kd.get(MapKeyIterateKey))
				}
			} else if _, ok := asInt(key); ok {
				// new index grows the array
				deps = append(deps, kd.get(LengthKey))
			}
		case TriggerDelete:
			if !isArrayShaped(target) {
				deps = append(deps, kd.get(IterateKey))
				if isMapShaped(target) {
					deps = append(deps, kd.get(MapKeyIterateKey))
				}
			}
		case TriggerSet:
			if isMapShaped(target) {
				// value mutation changes what map iteration observes
				deps = append(deps, kd.get(IterateKey))
			}
		}
	}

	merged := NewDep()
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		for _, e := range dep.Effects() {
			merged.Add(e)
		}
	}

	if rs.debug {
		return rs.triggerEffects(merged, &DebuggerEvent{
			Target:    target,
			TriggerOp: op,
			Key:       key,
			NewValue:  newValue,
			OldValue:  oldValue,
			OldTarget: oldTarget,
		})
	}
	return rs.triggerEffects(merged, nil)
}

// TriggerEffects notifies every subscriber of a collaborator-owned Dep.
func (rs *Runtime) TriggerEffects(dep *Dep) error {
	return rs.triggerEffects(dep, nil)
}

// Effects backing computed values run first: an ordinary effect may read a
// computed, and re-evaluating the computed after its reader would hand the
// reader stale data. Within each class the first-subscription order holds.
func (rs *Runtime) triggerEffects(dep *Dep, event *DebuggerEvent) error {
	effects := dep.Effects()
	for _, e := range effects {
		if e.computed {
			if err := rs.triggerEffect(e, event); err != nil {
				return err
			}
		}
	}
	for _, e := range effects {
		if !e.computed {
			if err := rs.triggerEffect(e, event); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rs *Runtime) triggerEffect(e *ReactiveEffect, event *DebuggerEvent) error {
	if e == rs.activeEffect && !e.allowRecurse {
		return nil
	}
	if rs.debug && e.onTrigger != nil && event != nil {
		ev := *event
		ev.Effect = e
		e.onTrigger(ev)
	}
	if e.scheduler != nil {
		return e.scheduler()
	}
	return e.Run()
}

func isArrayShaped(target any) bool {
	k := shapeKind(target)
	return k == reflect.Slice || k == reflect.Array
}

func isMapShaped(target any) bool {
	return shapeKind(target) == reflect.Map
}

// shapeKind looks through one pointer indirection: proxied targets reach
// the engine as pointers so their identity is stable.
func shapeKind(target any) reflect.Kind {
	if target == nil {
		return reflect.Invalid
	}
	t := reflect.TypeOf(target)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind()
}

// asInt coerces any integer-kinded key or length value, truncating floats
// the way the proxy layer's numeric conversion does.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
