package alloc

import (
	"fmt"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/internal/format"
)

// Allocation is one live region of the heap.
//
// Fields are owned by the Table and the collector; callers treat them as
// read-only. Start changes when the collector compacts the heap, so callers
// must re-read it after a collection instead of caching it.
type Allocation struct {
	Start  int  // first word
	Length int  // words, > 0 while live
	Marked bool // set by the most recent mark phase
}

// Tag returns the pointer word that refers to this allocation.
func (a *Allocation) Tag() uint32 { return format.TagAddr(a.Start) }

// End returns the offset one past the last word.
func (a *Allocation) End() int { return a.Start + a.Length }

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d,+%d)", a.Start, a.Length)
}

// Allocator defines the interface for reserving and releasing heap regions.
//
// Implementations:
//   - FirstFit: address-ordered first-fit search with growth on miss
//   - Bump: cursor allocation, gaps reclaimed only by compaction
type Allocator interface {
	// Alloc reserves size words and registers the new Allocation.
	// It only fails on a bad size or when the heap cannot grow further.
	Alloc(size int) (*Allocation, error)

	// Free releases a live allocation. Freeing an allocation that is not live
	// returns ErrNotLive and leaves usage accounting untouched.
	Free(a *Allocation) error

	// Grow adds the smallest whole number of segments that holds size words.
	Grow(size int) error

	// Compacted tells the allocator that live data now occupies [0, end)
	// contiguously.
	Compacted(end int)

	// Stats returns allocator counters.
	Stats() Stats
}

// Strategy selects an Allocator implementation.
type Strategy uint8

const (
	// StrategyFirstFit reuses the first gap that fits.
	StrategyFirstFit Strategy = iota
	// StrategyBump allocates at a cursor and defers reuse to compaction.
	StrategyBump
)

func (s Strategy) String() string {
	switch s {
	case StrategyFirstFit:
		return "firstfit"
	case StrategyBump:
		return "bump"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy converts a strategy name as printed by String.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "firstfit", "first-fit", "":
		return StrategyFirstFit, nil
	case "bump":
		return StrategyBump, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// New returns the allocator for s over h and t.
func New(s Strategy, h *heap.Heap, t *Table) (Allocator, error) {
	switch s {
	case StrategyFirstFit:
		return NewFirstFit(h, t), nil
	case StrategyBump:
		return NewBump(h, t), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownStrategy, s)
	}
}

// Stats holds allocator counters.
type Stats struct {
	AllocCalls     int   // Total Alloc() calls
	AllocFastPath  int   // Allocations that succeeded without Grow()
	AllocSlowPath  int   // Allocations that required Grow()
	FreeCalls      int   // Successful Free() calls
	GrowCalls      int   // Number of Grow() calls
	GrowWords      int64 // Total words added via Grow()
	WordsAllocated int64 // Total words handed out
	WordsFreed     int64 // Total words released through Free()
}
