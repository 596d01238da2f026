// Package gc implements the stop-the-world tracing collector for the word heap.
//
// # Phases
//
// Collect runs three phases, in order, never interleaved:
//
//  1. Mark: clear every mark bit, mark the caller's roots, then walk the heap
//     breadth-first. Each pointer word inside a marked allocation that names
//     a live allocation start marks and enqueues that allocation.
//  2. Sweep: release every allocation left unmarked.
//  3. Compact (conditional): when usage has fallen below half of capacity and
//     the heap is larger than one segment, copy live allocations to the bottom
//     of a freshly sized heap and rewrite pointer words to follow them.
//
// # Pointer Rules
//
//   - Only words with the tag bit set are considered.
//   - A word equal to the tagged offset of its own slot is a self-identity
//     slot, not a reference.
//   - A tag that names no live allocation start is ignored.
//
// # Relocation
//
// Compaction rewrites every pointer word inside the moved allocations through
// a forwarding table (old start -> new start), so references stored in the
// heap stay valid across a collection. Allocation.Start values change; callers
// holding *alloc.Allocation see the new offsets, callers holding raw offsets
// must re-read them.
//
// # Thread Safety
//
// A Collector is not thread-safe and is not re-entrant: a second Collect
// while one is running fails with ErrReentrant.
package gc
