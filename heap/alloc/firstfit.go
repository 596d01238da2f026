package alloc

import (
	"fmt"
	"os"

	"github.com/joshuapare/marksweep/heap"
)

// FirstFit allocates in the lowest-addressed gap that fits.
type FirstFit struct {
	h     *heap.Heap
	t     *Table
	stats Stats
}

// NewFirstFit creates a first-fit allocator over h that registers
// allocations in t.
func NewFirstFit(h *heap.Heap, t *Table) *FirstFit {
	return &FirstFit{h: h, t: t}
}

// Alloc reserves size words at the first gap that fits, growing the heap and
// retrying once if nothing does.
func (fa *FirstFit) Alloc(size int) (*Allocation, error) {
	fa.stats.AllocCalls++
	if size < 1 {
		return nil, ErrNeedSmall
	}

	off := fa.findFree(size)
	if off < 0 {
		if err := fa.Grow(size); err != nil {
			return nil, err
		}
		off = fa.findFree(size)
		if off < 0 {
			if logAlloc {
				fmt.Fprintf(os.Stderr, "[ALLOC] Alloc(%d): FAILED after grow, size=%d, usage=%d\n",
					size, fa.h.Size(), fa.t.Usage())
			}
			return nil, ErrNoSpace
		}
		fa.stats.AllocSlowPath++
	} else {
		fa.stats.AllocFastPath++
	}

	fa.stats.WordsAllocated += int64(size)
	return fa.t.Insert(off, size), nil
}

// findFree returns the start of the first gap of at least size words, or -1.
func (fa *FirstFit) findFree(size int) int {
	prevEnd := 0
	for _, a := range fa.t.Live() {
		if a.Start-prevEnd >= size {
			return prevEnd
		}
		prevEnd = a.End()
	}
	if fa.h.Size()-prevEnd >= size {
		return prevEnd
	}
	return -1
}

// Free releases a. The words are left as they are.
func (fa *FirstFit) Free(a *Allocation) error {
	if err := fa.t.Remove(a); err != nil {
		return err
	}
	fa.stats.FreeCalls++
	fa.stats.WordsFreed += int64(a.Length)
	return nil
}

// Grow adds whole segments covering size words.
func (fa *FirstFit) Grow(size int) error {
	return growHeap(fa.h, &fa.stats, size)
}

// Compacted is a no-op: the next search sees the new layout directly.
func (fa *FirstFit) Compacted(int) {}

// Stats returns allocator counters.
func (fa *FirstFit) Stats() Stats { return fa.stats }

// Compile-time interface check
var _ Allocator = (*FirstFit)(nil)
