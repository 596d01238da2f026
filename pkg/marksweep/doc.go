/*
Package marksweep provides a mark-and-sweep managed word heap for a host
runtime or interpreter.

# Quick Start

	ms, err := marksweep.New(marksweep.Options{SegmentSize: 4})
	if err != nil {
	    log.Fatal(err)
	}

	a, _ := ms.Allocate(1)
	b, _ := ms.Allocate(1)
	_ = ms.SetPtr(a.Start, b.Start) // a -> b

	cycle, err := ms.GC(a) // a is a root, b is reached through it
	fmt.Println(cycle.Freed, ms.HeapUsage())

# Features

  - Flat heap of tagged 32-bit words addressed by offset
  - First-fit or bump allocation, growth in whole segments
  - Breadth-first tracing from a caller-supplied root set
  - Sweep of everything unreached, then compaction when half empty
  - Pointer words rewritten during compaction
  - Invariant verification and reference-graph inspection

# Word Encoding

A word with bit 31 set is a pointer to the allocation that starts at the
offset held in the low 31 bits. All other words are opaque to the collector.
A pointer must name an allocation start; there are no interior pointers.
A word equal to the tagged offset of its own slot is a self-identity slot and
does not keep anything alive.

# Collections

GC(roots...) marks the roots and everything reachable from them, frees
everything else, and compacts when usage has dropped below half of capacity
and the heap is larger than one segment. Compaction moves allocations:
Allocation.Start values change, and pointer words stored in the heap are
rewritten to follow their targets. Re-read Start after every GC.

# Error Handling

Out-of-range word access returns ErrOutOfBounds. Freeing an allocation that
is not live returns ErrNotLive without touching usage accounting. Passing a
freed allocation as a root returns ErrStaleRoot. Running out of capacity is
never an error; the heap grows instead.

# Thread Safety

A MarkSweep is single-threaded. GC is a stop-the-world pause: callers must not
touch the heap from another goroutine while any method runs.
*/
package marksweep
