package marksweep

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/heap/alloc"
	"github.com/joshuapare/marksweep/heap/gc"
	"github.com/joshuapare/marksweep/heap/inspect"
	"github.com/joshuapare/marksweep/heap/verify"
	"github.com/joshuapare/marksweep/internal/format"
)

// Allocation is a live region of the heap (re-exported for convenience).
type Allocation = alloc.Allocation

// Strategy selects the allocator (re-exported for convenience).
type Strategy = alloc.Strategy

// Cycle describes one collection (re-exported for convenience).
type Cycle = gc.Cycle

// Allocation strategies.
const (
	StrategyFirstFit = alloc.StrategyFirstFit
	StrategyBump     = alloc.StrategyBump
)

// DefaultSegmentSize is the segment size used when Options.SegmentSize is 0.
const DefaultSegmentSize = format.DefaultSegmentSize

// Errors (re-exported for errors.Is).
var (
	ErrOutOfBounds = heap.ErrOutOfBounds
	ErrBadTarget   = heap.ErrBadTarget
	ErrNeedSmall   = alloc.ErrNeedSmall
	ErrNotLive     = alloc.ErrNotLive
	ErrStaleRoot   = gc.ErrStaleRoot
)

// Options controls heap construction.
type Options struct {
	// SegmentSize is the growth and shrink granularity in words.
	// Default: DefaultSegmentSize.
	SegmentSize int

	// InitialSize is the starting capacity in words, rounded up to whole
	// segments. Default: one segment.
	InitialSize int

	// Strategy selects the allocator. Default: StrategyFirstFit.
	Strategy Strategy

	// Logger receives collector phase records. Default: the process logger,
	// which discards until configured.
	Logger *slog.Logger
}

// MarkSweep is one independent managed heap.
type MarkSweep struct {
	h *heap.Heap
	t *alloc.Table
	a alloc.Allocator
	c *gc.Collector

	strategy Strategy
}

// Stats is a point-in-time summary of the heap.
type Stats struct {
	Strategy    string
	HeapSize    int
	HeapUsage   int
	SegmentSize int
	Allocations int
	Alloc       alloc.Stats
	GC          gc.Stats
}

// New creates an empty heap.
func New(opts Options) (*MarkSweep, error) {
	h, err := heap.New(heap.Config{
		SegmentSize: opts.SegmentSize,
		InitialSize: opts.InitialSize,
	})
	if err != nil {
		return nil, err
	}
	t := alloc.NewTable()
	a, err := alloc.New(opts.Strategy, h, t)
	if err != nil {
		return nil, err
	}
	return &MarkSweep{
		h: h,
		t: t,
		a: a,
		c: gc.New(h, t, a, gc.Options{Logger: opts.Logger}),

		strategy: opts.Strategy,
	}, nil
}

// Allocate reserves size words, growing the heap when no gap fits.
func (ms *MarkSweep) Allocate(size int) (*Allocation, error) {
	a, err := ms.a.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("allocate %d: %w", size, err)
	}
	return a, nil
}

// Free releases a without waiting for a collection.
func (ms *MarkSweep) Free(a *Allocation) error {
	return ms.a.Free(a)
}

// SetWord stores v at off unchanged.
func (ms *MarkSweep) SetWord(off int, v uint32) error {
	return ms.h.SetWord(off, v)
}

// SetPtr stores a pointer to the allocation starting at target.
func (ms *MarkSweep) SetPtr(off, target int) error {
	return ms.h.SetPtr(off, target)
}

// GetWord returns the raw word at off, tag bit included.
func (ms *MarkSweep) GetWord(off int) (uint32, error) {
	return ms.h.Word(off)
}

// Mark runs only the mark phase and returns how many allocations it reached.
// Mark bits stay visible on the allocations until the next mark.
func (ms *MarkSweep) Mark(roots ...*Allocation) (int, error) {
	return ms.c.Mark(roots)
}

// Sweep releases every allocation not reached by the most recent Mark and
// returns how many were freed. It never compacts.
func (ms *MarkSweep) Sweep() (int, error) {
	n, _, err := ms.c.Sweep()
	return n, err
}

// GC collects everything not reachable from roots and compacts when the heap
// is at most half used.
func (ms *MarkSweep) GC(roots ...*Allocation) (Cycle, error) {
	return ms.c.Collect(roots)
}

// HeapSize returns the capacity in words.
func (ms *MarkSweep) HeapSize() int { return ms.h.Size() }

// HeapUsage returns the live words.
func (ms *MarkSweep) HeapUsage() int { return ms.t.Usage() }

// SegmentSize returns the growth granularity in words.
func (ms *MarkSweep) SegmentSize() int { return ms.h.SegmentSize() }

// NumAllocations returns the number of live allocations.
func (ms *MarkSweep) NumAllocations() int { return ms.t.Len() }

// Allocations returns the live allocations in address order.
func (ms *MarkSweep) Allocations() []*Allocation {
	live := ms.t.Live()
	out := make([]*Allocation, len(live))
	copy(out, live)
	return out
}

// IsLive reports whether a is a live allocation of this heap.
func (ms *MarkSweep) IsLive(a *Allocation) bool { return ms.t.Contains(a) }

// Stats returns a summary of heap shape and allocator/collector counters.
func (ms *MarkSweep) Stats() Stats {
	return Stats{
		Strategy:    ms.strategy.String(),
		HeapSize:    ms.h.Size(),
		HeapUsage:   ms.t.Usage(),
		SegmentSize: ms.h.SegmentSize(),
		Allocations: ms.t.Len(),
		Alloc:       ms.a.Stats(),
		GC:          ms.c.Stats(),
	}
}

// Verify checks the heap invariants and returns the first violation.
func (ms *MarkSweep) Verify() error {
	return verify.AllInvariants(ms.h, ms.t)
}

// Inspect snapshots the reference graph as seen from roots.
func (ms *MarkSweep) Inspect(roots ...*Allocation) (*inspect.Graph, error) {
	return inspect.Build(ms.h, ms.t, roots)
}

// IsPointer reports whether w is a pointer word.
func IsPointer(w uint32) bool { return format.IsPointer(w) }

// Target returns the offset a pointer word refers to.
func Target(w uint32) int { return format.Untag(w) }

// ParseStrategy converts "firstfit" or "bump" to a Strategy.
func ParseStrategy(name string) (Strategy, error) { return alloc.ParseStrategy(name) }
