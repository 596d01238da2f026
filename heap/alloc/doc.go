// Package alloc provides allocation bookkeeping and free-space search for the
// word heap.
//
// # Overview
//
// Every live region of the heap is described by an Allocation (start offset,
// length in words, mark bit). A Table owns the live set, ordered by start
// offset, and an index from tagged start address to Allocation so the tracer
// can resolve a pointer word in O(1).
//
// # Allocator Interface
//
// The Allocator interface supports:
//
//   - Alloc(size): reserve size words, growing the heap when needed
//   - Free(a): release a live allocation
//   - Grow(size): add the smallest whole number of segments holding size words
//   - Compacted(end): notification that live data now occupies [0, end)
//
// # Implementations
//
// FirstFit: the default allocator
//
//   - Scans the live set in address order for the first gap that fits
//   - Falls back to the tail gap, then grows and retries once
//   - Reuses space released by the sweeper immediately
//
// Bump: cursor allocator
//
//   - O(1) allocation at a monotonically advancing cursor
//   - Freed gaps are not reused until compaction resets the cursor
//
// # Usage Example
//
//	h, _ := heap.New(heap.Config{SegmentSize: 4})
//	t := alloc.NewTable()
//	fa := alloc.NewFirstFit(h, t)
//
//	a, err := fa.Alloc(2)
//	if err != nil {
//	    return err
//	}
//	_ = h.SetWord(a.Start, 7)
//
// # Heap Growth
//
// Growth is sized to the request: Grow(size) appends
// ceil(size/segment)*segment words, so the retry after a grow always fits.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Callers must synchronize access
// externally.
package alloc
