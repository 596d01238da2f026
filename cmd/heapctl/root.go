package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/marksweep/internal/logger"
	"github.com/joshuapare/marksweep/pkg/marksweep"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string
	logJSON  bool

	// Heap flags shared by run and sim
	segmentSize int
	initialSize int
	strategy    string
)

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Drive and inspect a mark-sweep word heap",
	Long: `heapctl runs allocation scripts and random workloads against a
mark-sweep heap of 32-bit tagged words, and reports heap growth, collection
and compaction as they happen.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Log collector phases at this level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write log records as JSON")
}

// addHeapFlags registers the heap construction flags on cmd.
func addHeapFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&segmentSize, "segment", marksweep.DefaultSegmentSize, "Growth granularity in words")
	cmd.Flags().IntVar(&initialSize, "initial", 0, "Initial capacity in words (default one segment)")
	cmd.Flags().StringVar(&strategy, "strategy", "firstfit", "Allocator strategy (firstfit, bump)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func initLogging() error {
	if logLevel == "" {
		logger.Init(logger.Options{Enabled: false})
		return nil
	}
	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger.Init(logger.Options{Enabled: true, Level: level, JSON: logJSON})
	return nil
}

// newHeap builds a heap from the heap flags.
func newHeap() (*marksweep.MarkSweep, error) {
	s, err := marksweep.ParseStrategy(strategy)
	if err != nil {
		return nil, err
	}
	ms, err := marksweep.New(marksweep.Options{
		SegmentSize: segmentSize,
		InitialSize: initialSize,
		Strategy:    s,
		Logger:      logger.L,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create heap: %w", err)
	}
	printVerbose("Heap: segment=%d size=%d strategy=%s\n", ms.SegmentSize(), ms.HeapSize(), s)
	return ms, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeStats prints a heap summary with grouped digits.
func writeStats(w io.Writer, st marksweep.Stats) {
	printer.Fprintf(w, "Heap Statistics:\n")
	printer.Fprintf(w, "  Strategy:     %s\n", st.Strategy)
	printer.Fprintf(w, "  Segment:      %d words\n", st.SegmentSize)
	printer.Fprintf(w, "  Size:         %d words\n", st.HeapSize)
	printer.Fprintf(w, "  Usage:        %d words\n", st.HeapUsage)
	printer.Fprintf(w, "  Allocations:  %d\n", st.Allocations)
	printer.Fprintf(w, "  Alloc calls:  %d (%d grew the heap)\n", st.Alloc.AllocCalls, st.Alloc.AllocSlowPath)
	printer.Fprintf(w, "  Grown:        %d words in %d steps\n", st.Alloc.GrowWords, st.Alloc.GrowCalls)
	printer.Fprintf(w, "  Collections:  %d (%d compacted)\n", st.GC.Cycles, st.GC.Compactions)
	printer.Fprintf(w, "  Freed:        %d allocations, %d words\n", st.GC.Freed, st.GC.FreedWords)
	printer.Fprintf(w, "  Total pause:  %v\n", st.GC.TotalPause)
}

// writeCycle prints a one-line collection summary.
func writeCycle(w io.Writer, c marksweep.Cycle) {
	compacted := ""
	if c.Compacted {
		compacted = " compacted"
	}
	printer.Fprintf(w, "gc: marked %d, freed %d (%d words), size %d -> %d, usage %d%s\n",
		c.Marked, c.Freed, c.FreedWords, c.SizeBefore, c.SizeAfter, c.UsageAfter, compacted)
}
