package alloc

import "github.com/joshuapare/marksweep/heap"

// Bump is an append-only allocator. Every allocation lands at the cursor,
// which only moves forward; space released by Free or the sweeper stays dead
// until compaction packs the heap and resets the cursor.
//
// Key characteristics:
//   - O(1) allocation: no gap search
//   - Zero bookkeeping beyond the cursor
//   - Fragmentation is bounded only by the collector's compaction threshold
type Bump struct {
	h     *heap.Heap
	t     *Table
	stats Stats

	// cursor is the offset of the next allocation.
	cursor int
}

// NewBump creates a bump allocator over h. The cursor starts after the
// highest live allocation in t.
func NewBump(h *heap.Heap, t *Table) *Bump {
	cursor := 0
	if live := t.Live(); len(live) > 0 {
		cursor = live[len(live)-1].End()
	}
	return &Bump{h: h, t: t, cursor: cursor}
}

// Alloc reserves size words at the cursor.
func (ba *Bump) Alloc(size int) (*Allocation, error) {
	ba.stats.AllocCalls++
	if size < 1 {
		return nil, ErrNeedSmall
	}

	if ba.h.Size()-ba.cursor < size {
		if err := ba.Grow(size); err != nil {
			return nil, err
		}
		if ba.h.Size()-ba.cursor < size {
			return nil, ErrNoSpace
		}
		ba.stats.AllocSlowPath++
	} else {
		ba.stats.AllocFastPath++
	}

	a := ba.t.Insert(ba.cursor, size)
	ba.cursor += size
	ba.stats.WordsAllocated += int64(size)
	return a, nil
}

// Free releases a. The space is not reused before the next compaction.
func (ba *Bump) Free(a *Allocation) error {
	if err := ba.t.Remove(a); err != nil {
		return err
	}
	ba.stats.FreeCalls++
	ba.stats.WordsFreed += int64(a.Length)
	return nil
}

// Grow adds whole segments covering size words.
func (ba *Bump) Grow(size int) error {
	return growHeap(ba.h, &ba.stats, size)
}

// Compacted moves the cursor to the end of the packed live data.
func (ba *Bump) Compacted(end int) {
	ba.cursor = end
}

// Cursor returns the offset of the next allocation.
func (ba *Bump) Cursor() int { return ba.cursor }

// Stats returns allocator counters.
func (ba *Bump) Stats() Stats { return ba.stats }

// Compile-time interface check
var _ Allocator = (*Bump)(nil)
