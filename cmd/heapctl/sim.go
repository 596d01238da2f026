package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/marksweep/pkg/marksweep"
)

var (
	simSeed    uint64
	simOps     int
	simMaxSize int
	simRoots   int
	simGCEvery int
)

func init() {
	cmd := newSimCmd()
	addHeapFlags(cmd)
	cmd.Flags().Uint64Var(&simSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&simOps, "ops", 10000, "Number of operations")
	cmd.Flags().IntVar(&simMaxSize, "max-size", 64, "Largest allocation in words")
	cmd.Flags().IntVar(&simRoots, "roots", 16, "Size of the sliding root window")
	cmd.Flags().IntVar(&simGCEvery, "gc-every", 500, "Collect after this many operations")
	rootCmd.AddCommand(cmd)
}

func newSimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run a seeded random workload",
		Long: `The sim command allocates, links and collects at random. The most recent
allocations form a sliding root window; everything that falls out of the window
survives only while something in the window still refers to it. Heap invariants
are verified after every collection.

Example:
  heapctl sim
  heapctl sim --seed 7 --ops 100000 --segment 1024
  heapctl sim --strategy bump --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim()
		},
	}
	return cmd
}

// simConfig is one workload.
type simConfig struct {
	Seed    uint64
	Ops     int
	MaxSize int
	Roots   int
	GCEvery int
}

// simResult is the outcome of a workload.
type simResult struct {
	Cycles []marksweep.Cycle `json:"cycles"`
	Stats  marksweep.Stats   `json:"stats"`
}

func runSim() error {
	ms, err := newHeap()
	if err != nil {
		return err
	}
	cfg := simConfig{
		Seed:    simSeed,
		Ops:     simOps,
		MaxSize: simMaxSize,
		Roots:   simRoots,
		GCEvery: simGCEvery,
	}

	var out io.Writer = os.Stdout
	if quiet || jsonOut {
		out = io.Discard
	}
	res, err := simulate(ms, cfg, out)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(os.Stdout, res)
	}
	if !quiet {
		writeStats(os.Stdout, res.Stats)
	}
	return nil
}

// simulate runs cfg against ms, writing one line per collection to out.
func simulate(ms *marksweep.MarkSweep, cfg simConfig, out io.Writer) (simResult, error) {
	if cfg.MaxSize < 1 || cfg.Roots < 1 || cfg.GCEvery < 1 {
		return simResult{}, fmt.Errorf("sim: max-size, roots and gc-every must be positive")
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))

	var (
		res    simResult
		window []*marksweep.Allocation
		known  []*marksweep.Allocation
	)
	link := func(from, to *marksweep.Allocation) error {
		return ms.SetPtr(from.Start+rng.IntN(from.Length), to.Start)
	}
	collect := func() error {
		cycle, err := ms.GC(window...)
		if err != nil {
			return err
		}
		if err := ms.Verify(); err != nil {
			return fmt.Errorf("sim: after cycle %d: %w", len(res.Cycles)+1, err)
		}
		res.Cycles = append(res.Cycles, cycle)
		writeCycle(out, cycle)

		kept := known[:0]
		for _, a := range known {
			if ms.IsLive(a) {
				kept = append(kept, a)
			}
		}
		clear(known[len(kept):])
		known = kept
		return nil
	}

	for op := 1; op <= cfg.Ops; op++ {
		switch n := rng.IntN(10); {
		case n < 6 || len(known) == 0:
			a, err := ms.Allocate(1 + rng.IntN(cfg.MaxSize))
			if err != nil {
				return res, err
			}
			if len(window) > 0 && rng.IntN(2) == 0 {
				if err := link(window[rng.IntN(len(window))], a); err != nil {
					return res, err
				}
			}
			known = append(known, a)
			window = append(window, a)
			if len(window) > cfg.Roots {
				window = window[1:]
			}
		case n < 9:
			from := known[rng.IntN(len(known))]
			to := known[rng.IntN(len(known))]
			if err := link(from, to); err != nil {
				return res, err
			}
		default:
			from := known[rng.IntN(len(known))]
			if err := ms.SetWord(from.Start+rng.IntN(from.Length), rng.Uint32()&0x7FFFFFFF); err != nil {
				return res, err
			}
		}
		if op%cfg.GCEvery == 0 {
			if err := collect(); err != nil {
				return res, err
			}
		}
	}
	if err := collect(); err != nil {
		return res, err
	}
	res.Stats = ms.Stats()
	return res, nil
}
