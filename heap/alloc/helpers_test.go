package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/marksweep/heap"
)

// newTestHeap creates a heap of one segment of the given size.
func newTestHeap(t testing.TB, segment int) *heap.Heap {
	t.Helper()
	h, err := heap.New(heap.Config{SegmentSize: segment})
	require.NoError(t, err)
	return h
}

// requireSorted checks that the live set is in ascending, non-overlapping order.
func requireSorted(t testing.TB, tbl *Table) {
	t.Helper()
	prevEnd := 0
	for i, a := range tbl.Live() {
		require.GreaterOrEqual(t, a.Start, prevEnd, "allocation %d %v overlaps", i, a)
		prevEnd = a.End()
	}
}
