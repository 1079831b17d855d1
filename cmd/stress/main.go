package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kettleby/reactivity/reactivity"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	targetsKey = "targets"
	keysKey    = "keys"
	effectsKey = "effects"
	roundsKey  = "rounds"
)

func main() {
	cmd := &cli.Command{
		Name:  "stress",
		Usage: "Hammer the effect engine with every trigger class",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  targetsKey,
				Usage: "Number of tracked targets",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  keysKey,
				Usage: "Keys per target",
				Value: 10,
			},
			&cli.UintFlag{
				Name:  effectsKey,
				Usage: "Effects per key",
				Value: 4,
			},
			&cli.UintFlag{
				Name:  roundsKey,
				Usage: "Mutation rounds",
				Value: 50,
			},
		},
		Action: stress,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func stress(ctx context.Context, cmd *cli.Command) error {
	nTargets := int(cmd.Uint(targetsKey))
	nKeys := int(cmd.Uint(keysKey))
	nEffects := int(cmd.Uint(effectsKey))
	nRounds := int(cmd.Uint(roundsKey))

	start := time.Now()
	log.Printf("stress started: %d targets, %d keys, %d effects/key, %d rounds",
		nTargets, nKeys, nEffects, nRounds)
	defer func() {
		log.Printf("stress finished in %v", time.Since(start))
	}()

	rs := reactivity.CreateRuntime(reactivity.RuntimeOptions{})

	var effectRuns int64
	targets := make([]*map[string]int, nTargets)
	scope := rs.NewScope(false)
	err := scope.Run(func() error {
		for i := 0; i < nTargets; i++ {
			m := map[string]int{}
			target := &m
			targets[i] = target
			for k := 0; k < nKeys; k++ {
				key := fmt.Sprintf("k%d", k)
				for e := 0; e < nEffects; e++ {
					if _, err := rs.Effect(func() error {
						effectRuns++
						rs.Track(target, reactivity.TrackGet, key)
						_ = (*target)[key]
						return nil
					}, nil); err != nil {
						return err
					}
				}
			}
			// one iterator per target, invalidated by ADD/SET/DELETE/CLEAR
			// (targets are maps, so a SET also fans out to iteration)
			if _, err := rs.Effect(func() error {
				effectRuns++
				rs.Track(target, reactivity.TrackIterate, reactivity.IterateKey)
				for range *target {
				}
				return nil
			}, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	type phaseResult struct {
		name     string
		ops      int64
		runs     int64
		duration time.Duration
	}
	var results []phaseResult

	phase := func(name string, fn func(target *map[string]int, key string, round int) error) error {
		before := effectRuns
		var ops int64
		phaseStart := time.Now()
		for round := 0; round < nRounds; round++ {
			for _, target := range targets {
				for k := 0; k < nKeys; k++ {
					key := fmt.Sprintf("k%d", k)
					if err := fn(target, key, round); err != nil {
						return err
					}
					ops++
				}
			}
		}
		results = append(results, phaseResult{
			name:     name,
			ops:      ops,
			runs:     effectRuns - before,
			duration: time.Since(phaseStart),
		})
		return nil
	}

	if err := phase("add", func(target *map[string]int, key string, round int) error {
		if _, exists := (*target)[key]; exists {
			return nil
		}
		(*target)[key] = round
		return rs.Trigger(target, reactivity.TriggerAdd, key, round, nil, nil)
	}); err != nil {
		return err
	}
	if err := phase("set", func(target *map[string]int, key string, round int) error {
		old := (*target)[key]
		(*target)[key] = round
		return rs.Trigger(target, reactivity.TriggerSet, key, round, old, nil)
	}); err != nil {
		return err
	}
	if err := phase("delete", func(target *map[string]int, key string, round int) error {
		old, exists := (*target)[key]
		if !exists {
			return nil
		}
		delete(*target, key)
		return rs.Trigger(target, reactivity.TriggerDelete, key, nil, old, nil)
	}); err != nil {
		return err
	}

	clearStart := time.Now()
	beforeClear := effectRuns
	var clearOps int64
	for _, target := range targets {
		*target = map[string]int{}
		if err := rs.Trigger(target, reactivity.TriggerClear, nil, nil, nil, nil); err != nil {
			return err
		}
		clearOps++
	}
	results = append(results, phaseResult{
		name:     "clear",
		ops:      clearOps,
		runs:     effectRuns - beforeClear,
		duration: time.Since(clearStart),
	})

	scope.Stop()

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"phase", "ops", "effect runs", "time", "runs/ms"})
	for _, r := range results {
		rate := float64(r.runs) / (float64(r.duration) / float64(time.Millisecond))
		tbl.Append([]string{
			r.name,
			humanize.Comma(r.ops),
			humanize.Comma(r.runs),
			fmt.Sprint(r.duration),
			humanize.Comma(int64(rate)),
		})
	}
	tbl.Render()

	return nil
}
