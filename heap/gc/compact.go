package gc

import (
	"github.com/joshuapare/marksweep/internal/format"
)

// shouldCompact reports whether a heap of size words holding usage live words
// should be packed. A heap at its single-segment minimum is left alone unless
// it is already empty.
func shouldCompact(usage, size, segment int) bool {
	return 2*usage < size && (size > segment || size == 0)
}

// compact copies every live allocation, in address order, to the bottom of a
// heap sized to the smallest whole number of segments that holds them, and
// rewrites pointer words so they keep naming the same allocations.
func (c *Collector) compact() {
	usage := c.t.Usage()
	before := c.h.Size()
	size := format.AlignSegment(usage, c.h.SegmentSize())

	live := c.t.Live()
	forward := make(map[uint32]uint32, len(live))
	off := 0
	for _, a := range live {
		forward[a.Tag()] = format.TagAddr(off)
		off += a.Length
	}

	old := c.h.Words()
	next := make([]uint32, size)
	off = 0
	for _, a := range live {
		dst := next[off : off+a.Length]
		copy(dst, old[a.Start:a.End()])
		for j, v := range dst {
			if !format.IsPointer(v) {
				continue
			}
			if v == format.TagAddr(a.Start+j) {
				dst[j] = format.TagAddr(off + j)
				continue
			}
			if nv, ok := forward[v]; ok {
				dst[j] = nv
			}
		}
		a.Start = off
		off += a.Length
	}

	c.t.Reindex()
	c.h.Replace(next)
	c.a.Compacted(off)

	c.log.Info("gc: compacted heap",
		"live", len(live),
		"usage", usage,
		"size_before", before,
		"size_after", size,
	)
}
