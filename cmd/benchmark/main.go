package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kettleby/reactivity/reactivity"
)

func main() {
	flag.Parse()

	f, err := os.Create("default.pgo")
	if err != nil {
		log.Fatal(err)
	}
	pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()

	log.Printf("running benchmarks")

	benchmarkFanOut(true)
	benchmarkIteration(true)
}

var (
	ww    = []int{1, 10, 100, 1_000}
	hh    = []int{1, 10, 100}
	iters = 100
)

type record struct {
	value int
}

func benchmarkFanOut(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Trigger Fan-Out")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
			targets := make([]*record, w)
			for i := 0; i < w; i++ {
				target := &record{value: 1}
				targets[i] = target
				for j := 0; j < h; j++ {
					if _, err := rs.Effect(func() error {
						rs.Track(target, reactivity.TrackGet, "value")
						_ = target.value
						return nil
					}, nil); err != nil {
						log.Panic(err)
					}
				}
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				for _, target := range targets {
					old := target.value
					target.value++
					if err := rs.Trigger(target, reactivity.TriggerSet, "value", target.value, old, nil); err != nil {
						log.Panic(err)
					}
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("set: %d targets * %d effects", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

func benchmarkIteration(shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Iteration Invalidation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})
			targets := make([]*map[string]int, w)
			for i := 0; i < w; i++ {
				m := map[string]int{"seed": 1}
				target := &m
				targets[i] = target
				for j := 0; j < h; j++ {
					if _, err := rs.Effect(func() error {
						rs.Track(target, reactivity.TrackIterate, reactivity.IterateKey)
						for range *target {
						}
						return nil
					}, nil); err != nil {
						log.Panic(err)
					}
				}
			}

			for i := 0; i < iters; i++ {
				key := fmt.Sprintf("k%d", i)
				start := time.Now()
				for _, target := range targets {
					(*target)[key] = i
					if err := rs.Trigger(target, reactivity.TriggerAdd, key, i, nil, nil); err != nil {
						log.Panic(err)
					}
				}
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("add: %d maps * %d iterators", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
