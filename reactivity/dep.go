package reactivity

import mapset "github.com/deckarep/golang-set/v2"

// Dep is the subscriber set for one (target, key) pair. Subscribers are
// deduplicated through a set but notified in first-subscription order, so
// the order lives in a side slice. w and n are the "was tracked" and
// "newly tracked" recursion-depth bitmasks driving the re-tracking
// protocol: bit k of w means this Dep was subscribed to the effect running
// at depth k before its current run began, bit k of n means it has been
// re-read during that run.
type Dep struct {
	members mapset.Set[*ReactiveEffect]
	ordered []*ReactiveEffect

	w uint32
	n uint32
}

func NewDep(effects ...*ReactiveEffect) *Dep {
	d := &Dep{members: mapset.NewThreadUnsafeSet[*ReactiveEffect]()}
	for _, e := range effects {
		d.Add(e)
	}
	return d
}

func (d *Dep) Add(e *ReactiveEffect) {
	if d.members.Add(e) {
		d.ordered = append(d.ordered, e)
	}
}

func (d *Dep) Delete(e *ReactiveEffect) {
	if !d.members.Contains(e) {
		return
	}
	d.members.Remove(e)
	for i, cur := range d.ordered {
		if cur == e {
			d.ordered = append(d.ordered[:i], d.ordered[i+1:]...)
			break
		}
	}
}

func (d *Dep) Has(e *ReactiveEffect) bool {
	return d.members.Contains(e)
}

func (d *Dep) Size() int {
	return d.members.Cardinality()
}

// Effects returns a snapshot in first-subscription order, stable against
// membership changes while the caller iterates.
func (d *Dep) Effects() []*ReactiveEffect {
	out := make([]*ReactiveEffect, len(d.ordered))
	copy(out, d.ordered)
	return out
}

func (rs *Runtime) wasTracked(d *Dep) bool {
	return d.w&rs.trackOpBit != 0
}

func (rs *Runtime) newlyTracked(d *Dep) bool {
	return d.n&rs.trackOpBit != 0
}

// initDepMarkers marks every Dep the effect held before this run as "was
// tracked" at the current depth. Pairing with finalizeDepMarkers keeps the
// stable-deps case down to bit flips instead of a full clear and rebuild.
func (rs *Runtime) initDepMarkers(e *ReactiveEffect) {
	for _, dep := range e.deps {
		dep.w |= rs.trackOpBit
		dep.n &^= rs.trackOpBit
	}
}

// finalizeDepMarkers drops every Dep that was subscribed before the run
// but not re-read during it, then clears both mark bits at the current
// depth on the survivors.
func (rs *Runtime) finalizeDepMarkers(e *ReactiveEffect) {
	kept := e.deps[:0]
	for _, dep := range e.deps {
		if rs.wasTracked(dep) && !rs.newlyTracked(dep) {
			dep.Delete(e)
		} else {
			kept = append(kept, dep)
		}
		dep.w &^= rs.trackOpBit
		dep.n &^= rs.trackOpBit
	}
	for i := len(kept); i < len(e.deps); i++ {
		e.deps[i] = nil
	}
	e.deps = kept
}
