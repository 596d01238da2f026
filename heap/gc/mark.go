package gc

import (
	"fmt"

	"github.com/joshuapare/marksweep/heap/alloc"
	"github.com/joshuapare/marksweep/internal/format"
)

// mark computes the reachability closure of roots.
func (c *Collector) mark(roots []*alloc.Allocation) (int, error) {
	// Validate before touching any mark bit so a bad root leaves no trace.
	for _, r := range roots {
		if r != nil && !c.t.Contains(r) {
			return 0, fmt.Errorf("%w: %v", ErrStaleRoot, r)
		}
	}

	c.t.Unmark()

	queue := c.queue[:0]
	marked := 0
	for _, r := range roots {
		if r == nil || r.Marked {
			continue
		}
		r.Marked = true
		marked++
		queue = append(queue, r)
	}

	words := c.h.Words()
	for head := 0; head < len(queue); head++ {
		a := queue[head]
		for i, v := range words[a.Start:a.End()] {
			if !format.IsPointer(v) || v == format.TagAddr(a.Start+i) {
				continue
			}
			target, ok := c.t.Lookup(v)
			if !ok || target.Marked {
				continue
			}
			target.Marked = true
			marked++
			queue = append(queue, target)
		}
	}

	clear(queue)
	c.queue = queue[:0]

	c.log.Debug("gc: mark", "roots", len(roots), "marked", marked, "live", c.t.Len())
	return marked, nil
}
