package gc

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/heap/alloc"
	"github.com/joshuapare/marksweep/internal/logger"
)

// Options configures a Collector.
type Options struct {
	// Logger receives one record per phase. Default: logger.L.
	Logger *slog.Logger
}

// Collector traces, sweeps and compacts one heap.
type Collector struct {
	h *heap.Heap
	t *alloc.Table
	a alloc.Allocator

	log   *slog.Logger
	state State

	// queue is the mark work list, kept between cycles to avoid reallocating.
	queue []*alloc.Allocation

	stats Stats
}

// Cycle describes one collection.
type Cycle struct {
	Roots      int           // roots supplied
	Marked     int           // allocations reached, roots included
	Freed      int           // allocations released by sweep
	FreedWords int           // words released by sweep
	Compacted  bool          // whether compaction ran
	SizeBefore int           // heap size in words before the cycle
	SizeAfter  int           // heap size in words after the cycle
	UsageAfter int           // live words after the cycle
	Duration   time.Duration // wall time of the whole pause
}

// Stats holds cumulative collector counters.
type Stats struct {
	Cycles      int
	Compactions int
	Freed       int64
	FreedWords  int64
	TotalPause  time.Duration
	Last        Cycle
}

// New creates a collector for the heap h whose live set is t and whose
// allocator is a. a is notified after every compaction.
func New(h *heap.Heap, t *alloc.Table, a alloc.Allocator, opts Options) *Collector {
	log := opts.Logger
	if log == nil {
		log = logger.L
	}
	return &Collector{
		h:     h,
		t:     t,
		a:     a,
		log:   log,
		queue: make([]*alloc.Allocation, 0, 64),
	}
}

// State returns the current phase. Outside of a call it is always Idle.
func (c *Collector) State() State { return c.state }

// Stats returns cumulative counters.
func (c *Collector) Stats() Stats { return c.stats }

// Collect runs mark, sweep and, when the heap is at most half used and larger
// than one segment, compaction. roots are kept unconditionally and are not
// retained after the call.
func (c *Collector) Collect(roots []*alloc.Allocation) (Cycle, error) {
	if c.state != Idle {
		return Cycle{}, fmt.Errorf("collect from %v: %w", c.state, ErrReentrant)
	}
	start := time.Now()
	cycle := Cycle{Roots: len(roots), SizeBefore: c.h.Size()}

	c.state = Marking
	marked, err := c.mark(roots)
	if err != nil {
		c.state = Idle
		return Cycle{}, err
	}
	cycle.Marked = marked

	c.state = Sweeping
	cycle.Freed, cycle.FreedWords = c.sweep()

	if shouldCompact(c.t.Usage(), c.h.Size(), c.h.SegmentSize()) {
		c.state = Compacting
		c.compact()
		cycle.Compacted = true
	}
	c.state = Idle

	cycle.SizeAfter = c.h.Size()
	cycle.UsageAfter = c.t.Usage()
	cycle.Duration = time.Since(start)
	c.record(cycle)

	c.log.Debug("gc: cycle done",
		"roots", cycle.Roots,
		"marked", cycle.Marked,
		"freed", cycle.Freed,
		"freed_words", cycle.FreedWords,
		"compacted", cycle.Compacted,
		"usage", cycle.UsageAfter,
		"size", cycle.SizeAfter,
		"pause", cycle.Duration,
	)
	return cycle, nil
}

// Mark runs only the mark phase. Mark bits stay set until the next mark.
// It returns the number of allocations reached.
func (c *Collector) Mark(roots []*alloc.Allocation) (int, error) {
	if c.state != Idle {
		return 0, fmt.Errorf("mark from %v: %w", c.state, ErrReentrant)
	}
	c.state = Marking
	defer func() { c.state = Idle }()
	return c.mark(roots)
}

// Sweep runs only the sweep phase, releasing every allocation not marked by
// the most recent Mark. It returns how many allocations and words were freed.
func (c *Collector) Sweep() (count, words int, err error) {
	if c.state != Idle {
		return 0, 0, fmt.Errorf("sweep from %v: %w", c.state, ErrReentrant)
	}
	c.state = Sweeping
	defer func() { c.state = Idle }()
	count, words = c.sweep()
	return count, words, nil
}

func (c *Collector) record(cycle Cycle) {
	c.stats.Cycles++
	if cycle.Compacted {
		c.stats.Compactions++
	}
	c.stats.Freed += int64(cycle.Freed)
	c.stats.FreedWords += int64(cycle.FreedWords)
	c.stats.TotalPause += cycle.Duration
	c.stats.Last = cycle
}
