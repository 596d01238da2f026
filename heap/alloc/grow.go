package alloc

import (
	"fmt"
	"os"

	"github.com/joshuapare/marksweep/heap"
	"github.com/joshuapare/marksweep/internal/format"
)

// Runtime debug flag for allocation logging - controlled by MARKSWEEP_LOG_ALLOC env var.
var logAlloc = os.Getenv("MARKSWEEP_LOG_ALLOC") != ""

// growHeap appends the smallest whole number of segments that holds size words.
func growHeap(h *heap.Heap, stats *Stats, size int) error {
	n := format.AlignSegment(size, h.SegmentSize())
	before := h.Size()
	if err := h.Append(n); err != nil {
		return fmt.Errorf("%w: %w", ErrGrowFail, err)
	}
	stats.GrowCalls++
	stats.GrowWords += int64(n)

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ALLOC] grow: need=%d, added=%d (%d segments), size %d -> %d\n",
			size, n, format.Segments(size, h.SegmentSize()), before, h.Size())
	}
	return nil
}
