package reactivity_test

import (
	"errors"
	"testing"

	"github.com/kettleby/reactivity/reactivity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// truncating an array should invalidate readers of removed indices
func TestArrayLengthTruncation(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	arr := &[]int{10, 20, 30}

	runs := 0
	mustEffect(t, rs, func() error {
		runs++
		rs.Track(arr, reactivity.TrackGet, 2)
		return nil
	}, nil)
	assert.Equal(t, 1, runs)

	// shrink to 1 element: index 2 is gone
	*arr = (*arr)[:1]
	require.NoError(t, rs.Trigger(arr, reactivity.TriggerSet, reactivity.LengthKey, 1, 3, nil))
	assert.Equal(t, 2, runs)

	// growing back does not touch index readers
	require.NoError(t, rs.Trigger(arr, reactivity.TriggerSet, reactivity.LengthKey, 5, 1, nil))
	assert.Equal(t, 2, runs)
}

// truncation should also notify length readers below the cut
func TestArrayLengthReadersAlwaysNotified(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	arr := &[]int{10, 20, 30}

	lengthRuns, indexRuns := 0, 0
	mustEffect(t, rs, func() error {
		lengthRuns++
		rs.Track(arr, reactivity.TrackGet, reactivity.LengthKey)
		return nil
	}, nil)
	mustEffect(t, rs, func() error {
		indexRuns++
		rs.Track(arr, reactivity.TrackGet, 0)
		return nil
	}, nil)

	require.NoError(t, rs.Trigger(arr, reactivity.TriggerSet, reactivity.LengthKey, 2, 3, nil))
	assert.Equal(t, 2, lengthRuns)
	assert.Equal(t, 1, indexRuns, "index 0 survives the cut")
}

// appending to an array should notify length readers
func TestArrayAddNotifiesLength(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	arr := &[]int{10}

	lengthRuns := 0
	mustEffect(t, rs, func() error {
		lengthRuns++
		rs.Track(arr, reactivity.TrackGet, reactivity.LengthKey)
		return nil
	}, nil)

	*arr = append(*arr, 20)
	require.NoError(t, rs.Trigger(arr, reactivity.TriggerAdd, 1, 20, nil, nil))
	assert.Equal(t, 2, lengthRuns)
}

// map iteration should see ADD and SET, array index SET should not fan out
func TestMapIterationInvalidation(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	m := &map[string]int{"k1": 1}

	iterRuns := 0
	mustEffect(t, rs, func() error {
		iterRuns++
		rs.Track(m, reactivity.TrackIterate, reactivity.IterateKey)
		return nil
	}, nil)
	assert.Equal(t, 1, iterRuns)

	(*m)["k2"] = 2
	require.NoError(t, rs.Trigger(m, reactivity.TriggerAdd, "k2", 2, nil, nil))
	assert.Equal(t, 2, iterRuns)

	(*m)["k2"] = 3
	require.NoError(t, rs.Trigger(m, reactivity.TriggerSet, "k2", 3, 2, nil))
	assert.Equal(t, 3, iterRuns, "map SET fans out to iteration")

	arr := &[]int{10, 20}
	arrIterRuns := 0
	mustEffect(t, rs, func() error {
		arrIterRuns++
		rs.Track(arr, reactivity.TrackIterate, reactivity.IterateKey)
		return nil
	}, nil)
	require.NoError(t, rs.Trigger(arr, reactivity.TriggerSet, 0, 11, 10, nil))
	assert.Equal(t, 1, arrIterRuns, "array SET at an existing index stays narrow")
}

// key-only iteration should ignore value mutations
func TestMapKeyIteration(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	m := &map[string]int{"k1": 1}

	keyRuns := 0
	mustEffect(t, rs, func() error {
		keyRuns++
		rs.Track(m, reactivity.TrackIterate, reactivity.MapKeyIterateKey)
		return nil
	}, nil)

	require.NoError(t, rs.Trigger(m, reactivity.TriggerSet, "k1", 2, 1, nil))
	assert.Equal(t, 1, keyRuns, "same keys, new value")

	require.NoError(t, rs.Trigger(m, reactivity.TriggerAdd, "k2", 2, nil, nil))
	assert.Equal(t, 2, keyRuns)

	require.NoError(t, rs.Trigger(m, reactivity.TriggerDelete, "k2", nil, 2, nil))
	assert.Equal(t, 3, keyRuns)
}

// ADD and DELETE on a plain object should invalidate iteration and HAS
func TestObjectAddDeleteFanOut(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := newObserved(t, rs, map[string]any{"a": 1})

	iterRuns, hasRuns := 0, 0
	mustEffect(t, rs, func() error {
		iterRuns++
		o.Keys()
		return nil
	}, nil)
	mustEffect(t, rs, func() error {
		hasRuns++
		o.Has("b")
		return nil
	}, nil)

	o.Set("b", 2)
	assert.Equal(t, 2, iterRuns)
	assert.Equal(t, 2, hasRuns)

	o.Delete("b")
	assert.Equal(t, 3, iterRuns)
	assert.Equal(t, 3, hasRuns)

	// plain SET stays narrow
	o.Set("a", 10)
	assert.Equal(t, 3, iterRuns)
}

// CLEAR should notify every subscriber of the target
func TestClearNotifiesEverything(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	m := &map[string]int{"a": 1, "b": 2}

	aRuns, iterRuns := 0, 0
	mustEffect(t, rs, func() error {
		aRuns++
		rs.Track(m, reactivity.TrackGet, "a")
		return nil
	}, nil)
	mustEffect(t, rs, func() error {
		iterRuns++
		rs.Track(m, reactivity.TrackIterate, reactivity.IterateKey)
		return nil
	}, nil)

	old := map[string]int{"a": 1, "b": 2}
	*m = map[string]int{}
	require.NoError(t, rs.Trigger(m, reactivity.TriggerClear, nil, nil, nil, old))
	assert.Equal(t, 2, aRuns)
	assert.Equal(t, 2, iterRuns)
}

// computed-backed effects should be notified before ordinary ones
func TestComputedEffectsRunFirst(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := newObserved(t, rs, map[string]any{"a": 1})

	var order []string
	mustEffect(t, rs, func() error {
		order = append(order, "plain")
		o.Get("a")
		return nil
	}, nil)

	computed := mustEffect(t, rs, func() error {
		order = append(order, "computed")
		o.Get("a")
		return nil
	}, &reactivity.EffectOptions{Lazy: true})
	computed.Effect.MarkComputed()
	require.NoError(t, computed.Run())

	order = order[:0]
	o.Set("a", 2)
	assert.Equal(t, []string{"computed", "plain"}, order,
		"computed wins despite subscribing last")
}

// a trigger on a never-tracked target should do nothing
func TestTriggerUnknownTargetIsNoop(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := &struct{ a int }{a: 1}
	require.NoError(t, rs.Trigger(o, reactivity.TriggerSet, "a", 2, 1, nil))
}

// effects subscribing during notification should wait for the next trigger
func TestTriggerSnapshotIsStable(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := newObserved(t, rs, map[string]any{"a": 1})

	lateRuns := 0
	spawned := false
	mustEffect(t, rs, func() error {
		o.Get("a")
		if !spawned {
			spawned = true
			return nil
		}
		if lateRuns == 0 {
			mustEffect(t, rs, func() error {
				lateRuns++
				o.Get("a")
				return nil
			}, nil)
		}
		return nil
	}, nil)

	o.Set("a", 2)
	assert.Equal(t, 1, lateRuns, "only the immediate first run so far")

	o.Set("a", 3)
	assert.Equal(t, 2, lateRuns)
}

// a scheduler should take over delivery instead of Run
func TestSchedulerSubstitutesRun(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := newObserved(t, rs, map[string]any{"a": 1})

	runs, scheduled := 0, 0
	mustEffect(t, rs, func() error {
		runs++
		o.Get("a")
		return nil
	}, &reactivity.EffectOptions{Scheduler: func() error {
		scheduled++
		return nil
	}})

	assert.Equal(t, 1, runs, "first run is direct")
	o.Set("a", 2)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, scheduled)
}

// the first failing effect should abort the fan-out and surface the error
func TestTriggerErrorAbortsFanOut(t *testing.T) {
	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
	o := newObserved(t, rs, map[string]any{"a": 1})

	boom := errors.New("boom")
	firstRuns, secondRuns := 0, 0
	mustEffect(t, rs, func() error {
		firstRuns++
		o.Get("a")
		if firstRuns > 1 {
			return boom
		}
		return nil
	}, nil)
	mustEffect(t, rs, func() error {
		secondRuns++
		o.Get("a")
		return nil
	}, nil)

	err := rs.Trigger(o, reactivity.TriggerSet, "a", 2, 1, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, firstRuns)
	assert.Equal(t, 1, secondRuns, "not reached after the fault")
}
