package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := newRunCmd()
	addHeapFlags(cmd)
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Execute a heap script",
		Long: `The run command executes a line-oriented heap script against a fresh heap.
Use "-" to read the script from stdin.

Ops:
  alloc NAME SIZE          allocate SIZE words and bind them to NAME
  word NAME INDEX VALUE    store a raw word
  ptr NAME INDEX TARGET    store a pointer to allocation TARGET
  clear NAME INDEX         store zero
  free NAME                release NAME immediately
  gc [ROOT...]             collect, keeping everything reachable from ROOTs
  inspect [ROOT...]        report garbage and retained words without collecting
  stats                    print heap statistics
  verify                   check heap invariants
  expect usage|size|count N

Example:
  heapctl run workload.heap
  heapctl run --segment 4 --strategy bump workload.heap
  heapctl run - < workload.heap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	return cmd
}

func runRun(args []string) error {
	var src io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		src = f
	}

	ms, err := newHeap()
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if quiet {
		out = io.Discard
	}
	in := newInterp(ms, out)
	in.json = jsonOut
	if err := in.runScript(src); err != nil {
		return err
	}
	printVerbose("Script finished: %d live allocations, %d words used\n",
		ms.NumAllocations(), ms.HeapUsage())
	return nil
}
