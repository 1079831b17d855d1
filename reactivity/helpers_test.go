package reactivity_test

import (
	"testing"

	"github.com/kettleby/reactivity/reactivity"
)

// observed plays the proxy layer over a plain string-keyed record: reads
// report Track, writes report Trigger with the right operation.
type observed struct {
	t      *testing.T
	rs     *reactivity.Runtime
	fields map[string]any
}

func newObserved(t *testing.T, rs *reactivity.Runtime, fields map[string]any) *observed {
	if fields == nil {
		fields = map[string]any{}
	}
	return &observed{t: t, rs: rs, fields: fields}
}

func (o *observed) Get(key string) any {
	o.rs.Track(o, reactivity.TrackGet, key)
	return o.fields[key]
}

func (o *observed) Has(key string) bool {
	o.rs.Track(o, reactivity.TrackHas, key)
	_, ok := o.fields[key]
	return ok
}

func (o *observed) Keys() []string {
	o.rs.Track(o, reactivity.TrackIterate, reactivity.IterateKey)
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	return keys
}

func (o *observed) Set(key string, v any) {
	o.t.Helper()
	old, existed := o.fields[key]
	o.fields[key] = v
	var err error
	if existed {
		err = o.rs.Trigger(o, reactivity.TriggerSet, key, v, old, nil)
	} else {
		err = o.rs.Trigger(o, reactivity.TriggerAdd, key, v, nil, nil)
	}
	if err != nil {
		o.t.Fatal(err)
	}
}

func (o *observed) Delete(key string) {
	o.t.Helper()
	old := o.fields[key]
	delete(o.fields, key)
	if err := o.rs.Trigger(o, reactivity.TriggerDelete, key, nil, old, nil); err != nil {
		o.t.Fatal(err)
	}
}

func mustEffect(t *testing.T, rs *reactivity.Runtime, fn reactivity.ErrFn, opts *reactivity.EffectOptions) *reactivity.EffectRunner {
	t.Helper()
	runner, err := rs.Effect(fn, opts)
	if err != nil {
		t.Fatal(err)
	}
	return runner
}
