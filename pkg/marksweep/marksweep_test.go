package marksweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestHeap creates a heap with the given segment size and fails the test
// on error.
func newTestHeap(t testing.TB, segment int, strategy Strategy) *MarkSweep {
	t.Helper()
	ms, err := New(Options{SegmentSize: segment, Strategy: strategy})
	require.NoError(t, err)
	return ms
}

// mustAlloc allocates size words and fails the test on error.
func mustAlloc(t testing.TB, ms *MarkSweep, size int) *Allocation {
	t.Helper()
	a, err := ms.Allocate(size)
	require.NoError(t, err, "Allocate(%d)", size)
	return a
}

// mustGC runs a collection and checks invariants afterwards.
func mustGC(t testing.TB, ms *MarkSweep, roots ...*Allocation) Cycle {
	t.Helper()
	cycle, err := ms.GC(roots...)
	require.NoError(t, err)
	require.NoError(t, ms.Verify(), "invariants after GC")
	return cycle
}

func TestMarkSweep_SequentialPacking(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	assert.Equal(t, 1, a.Length)
	assert.Equal(t, 0, a.Start)

	b := mustAlloc(t, ms, 1)
	assert.Equal(t, 1, b.Length)
	assert.Equal(t, 1, b.Start)
}

func TestMarkSweep_UsageAccounting(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	total := 0
	allocs := make([]*Allocation, 0, 200)
	for i := range 200 {
		allocs = append(allocs, mustAlloc(t, ms, i+1))
		total += i + 1
	}

	sum := 0
	for _, a := range allocs {
		sum += a.Length
	}
	assert.Equal(t, total, sum)
	assert.Equal(t, total, ms.HeapUsage())
	assert.Equal(t, 200, ms.NumAllocations())
	require.NoError(t, ms.Verify())

	mustGC(t, ms)
	assert.Zero(t, ms.HeapUsage())
}

func TestMarkSweep_FullCollection(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	assert.Equal(t, 1, ms.HeapUsage())
	assert.Same(t, a, ms.Allocations()[0])

	// Pointer structure does not matter without roots.
	b := mustAlloc(t, ms, 2)
	require.NoError(t, ms.SetPtr(a.Start, b.Start))
	require.NoError(t, ms.SetPtr(b.Start, a.Start))

	cycle := mustGC(t, ms)
	assert.Zero(t, ms.HeapUsage())
	assert.Zero(t, ms.NumAllocations())
	assert.Equal(t, 2, cycle.Freed)
	assert.Equal(t, 3, cycle.FreedWords)
	assert.False(t, ms.IsLive(a))
}

func TestMarkSweep_PreservesReachable(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	b := mustAlloc(t, ms, 1)
	a := mustAlloc(t, ms, 1)
	c := mustAlloc(t, ms, 1)
	require.Equal(t, 3, ms.NumAllocations())

	require.NoError(t, ms.SetPtr(a.Start, b.Start))
	require.NoError(t, ms.SetPtr(b.Start, c.Start))

	mustGC(t, ms, a)
	assert.True(t, a.Marked, "a marked")
	assert.True(t, b.Marked, "b marked")
	assert.True(t, c.Marked, "c marked")
	assert.Equal(t, 3, ms.NumAllocations())

	require.NoError(t, ms.SetWord(a.Start, 0))
	mustGC(t, ms, a)
	assert.True(t, a.Marked, "a marked")
	assert.False(t, b.Marked, "b unmarked")
	require.Equal(t, 1, ms.NumAllocations())
	assert.Same(t, a, ms.Allocations()[0])

	mustGC(t, ms)
	assert.Zero(t, ms.NumAllocations())
}

func TestMarkSweep_Cycles(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	b := mustAlloc(t, ms, 1)
	c := mustAlloc(t, ms, 1)
	require.NoError(t, ms.SetPtr(a.Start, b.Start))
	require.NoError(t, ms.SetPtr(b.Start, c.Start))
	require.NoError(t, ms.SetPtr(c.Start, a.Start))

	cycle := mustGC(t, ms, a)
	assert.Equal(t, 3, cycle.Marked)
	assert.Zero(t, cycle.Freed)
	assert.Equal(t, 3, ms.HeapUsage())

	// Rooting any member keeps the whole ring.
	mustGC(t, ms, c)
	assert.Equal(t, 3, ms.HeapUsage())

	// Break a -> b: the ring through b and c is no longer reachable from a.
	require.NoError(t, ms.SetWord(a.Start, 0))
	cycle = mustGC(t, ms, a)
	assert.Equal(t, 2, cycle.Freed)
	assert.Equal(t, 1, ms.HeapUsage())
}

func TestMarkSweep_EndToEndSegmentFour(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyFirstFit)
	require.Equal(t, 4, ms.HeapSize())

	a := mustAlloc(t, ms, 1)
	b := mustAlloc(t, ms, 1)
	c := mustAlloc(t, ms, 1)
	assert.Equal(t, []int{0, 1, 2}, []int{a.Start, b.Start, c.Start})

	require.NoError(t, ms.SetPtr(a.Start, b.Start))
	require.NoError(t, ms.SetPtr(b.Start, c.Start))

	mustGC(t, ms, a)
	assert.Equal(t, 3, ms.HeapUsage())
	assert.True(t, a.Marked && b.Marked && c.Marked)

	require.NoError(t, ms.SetWord(a.Start, 0))
	cycle := mustGC(t, ms, a)
	assert.Equal(t, 1, ms.HeapUsage())
	assert.Equal(t, 2, cycle.Freed)
	assert.False(t, cycle.Compacted, "single-segment heap is not compacted")
	assert.Equal(t, 4, ms.HeapSize())
}

func TestMarkSweep_KeepsRefs(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	total := 101
	retained := total
	ptrs := mustAlloc(t, ms, 101)
	require.NoError(t, ms.SetPtr(ptrs.Start, ptrs.Start))

	allocs := make([]*Allocation, 0, 200)
	for range 200 {
		allocs = append(allocs, mustAlloc(t, ms, 1))
		total++
	}
	for i := range 100 {
		a := allocs[i]
		require.NoError(t, ms.SetPtr(ptrs.Start+i+1, a.Start))
		require.NoError(t, ms.SetPtr(a.Start, allocs[i+100].Start))
		retained++
	}
	assert.Equal(t, total, ms.HeapUsage())

	marked, err := ms.Mark(ptrs)
	require.NoError(t, err)
	assert.Equal(t, 201, marked)
	assert.True(t, ptrs.Marked, "root marked")
	for i, a := range allocs {
		assert.True(t, a.Marked, "allocation %d marked", i)
	}

	mustGC(t, ms, ptrs)
	assert.Equal(t, total, ms.HeapUsage())

	for i := range 100 {
		require.NoError(t, ms.SetWord(allocs[i].Start, 0))
	}
	mustGC(t, ms, ptrs)
	assert.Equal(t, retained, ms.HeapUsage())

	mustGC(t, ms)
	assert.Zero(t, ms.HeapUsage())
}

func TestMarkSweep_IdempotentEmptyCollection(t *testing.T) {
	ms := newTestHeap(t, 8, StrategyFirstFit)

	for range 5 {
		cycle := mustGC(t, ms)
		assert.Zero(t, ms.HeapUsage())
		assert.Equal(t, 8, ms.HeapSize(), "heap stays at one segment")
		assert.False(t, cycle.Compacted)
	}
}

func TestMarkSweep_CompactionShrinksHeap(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	allocs := make([]*Allocation, 0, 200)
	for range 200 {
		allocs = append(allocs, mustAlloc(t, ms, 10000))
	}
	assert.Equal(t, 200*10000, ms.HeapUsage())
	hs := ms.HeapSize()
	assert.Greater(t, hs, ms.SegmentSize(), "heap grew past one segment")

	cycle := mustGC(t, ms, allocs[:100]...)
	assert.Equal(t, 100*10000, ms.HeapUsage())
	assert.Greater(t, hs, ms.HeapSize(), "heap shrunk")
	assert.True(t, cycle.Compacted)
	assert.Zero(t, ms.HeapSize()%ms.SegmentSize())

	// Retained allocations are packed from offset 0 in address order.
	off := 0
	for _, a := range allocs[:100] {
		assert.Equal(t, off, a.Start)
		off += a.Length
	}

	mustGC(t, ms)
	assert.Zero(t, ms.HeapUsage())
	assert.Zero(t, ms.HeapSize())

	// An empty heap stays empty and still serves new allocations.
	mustGC(t, ms)
	assert.Zero(t, ms.HeapSize())
	a := mustAlloc(t, ms, 3)
	assert.Equal(t, 0, a.Start)
	assert.Equal(t, ms.SegmentSize(), ms.HeapSize())
}

func TestMarkSweep_SelfPointerIsNotARoot(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	require.NoError(t, ms.SetPtr(a.Start, a.Start))

	cycle := mustGC(t, ms)
	assert.Equal(t, 1, cycle.Freed)
	assert.Zero(t, ms.HeapUsage())
}

func TestMarkSweep_SelfSlotIsNotFollowed(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	root := mustAlloc(t, ms, 2)
	require.NoError(t, ms.SetPtr(root.Start, root.Start))
	require.NoError(t, ms.SetWord(root.Start+1, 5))

	marked, err := ms.Mark(root)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
}

func TestMarkSweep_DanglingPointerIgnored(t *testing.T) {
	ms := newTestHeap(t, 16, StrategyFirstFit)

	a := mustAlloc(t, ms, 2)
	b := mustAlloc(t, ms, 2)
	require.NoError(t, ms.SetPtr(a.Start, 9))         // never allocated
	require.NoError(t, ms.SetPtr(a.Start+1, b.Start)) // freed below
	require.NoError(t, ms.Free(b))

	cycle := mustGC(t, ms, a)
	assert.Equal(t, 1, cycle.Marked)
	assert.Equal(t, 2, ms.HeapUsage())
}

func TestMarkSweep_CompactionRewritesPointers(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyFirstFit)

	a := mustAlloc(t, ms, 4)
	b := mustAlloc(t, ms, 4)
	c := mustAlloc(t, ms, 4)
	d := mustAlloc(t, ms, 2)
	require.Equal(t, []int{0, 4, 8, 12}, []int{a.Start, b.Start, c.Start, d.Start})
	require.Equal(t, 16, ms.HeapSize())

	require.NoError(t, ms.SetPtr(c.Start, d.Start))
	require.NoError(t, ms.SetWord(c.Start+1, 99))
	require.NoError(t, ms.SetPtr(c.Start+2, c.Start+2)) // self slot
	require.NoError(t, ms.SetPtr(d.Start, c.Start))
	require.NoError(t, ms.SetWord(d.Start+1, 7))

	cycle := mustGC(t, ms, c)
	require.True(t, cycle.Compacted)
	assert.Equal(t, 8, ms.HeapSize())
	assert.Equal(t, 6, ms.HeapUsage())
	assert.Equal(t, 0, c.Start)
	assert.Equal(t, 4, d.Start)

	w, err := ms.GetWord(c.Start)
	require.NoError(t, err)
	require.True(t, IsPointer(w))
	assert.Equal(t, d.Start, Target(w), "c -> d follows d")

	w, err = ms.GetWord(c.Start + 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), w, "data untouched")

	w, err = ms.GetWord(c.Start + 2)
	require.NoError(t, err)
	assert.Equal(t, c.Start+2, Target(w), "self slot follows its own word")

	w, err = ms.GetWord(d.Start)
	require.NoError(t, err)
	assert.Equal(t, c.Start, Target(w), "d -> c follows c")

	// The rewritten pointers still keep d alive on the next trace.
	cycle = mustGC(t, ms, c)
	assert.Zero(t, cycle.Freed)
	assert.Equal(t, 2, cycle.Marked)
}

func TestMarkSweep_FirstFitReusesGaps(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	mustAlloc(t, ms, 1)
	mustAlloc(t, ms, 1)
	d := mustAlloc(t, ms, 1)

	mustGC(t, ms, a, d)
	require.Equal(t, 2, ms.HeapUsage())
	require.Equal(t, 4, ms.HeapSize())

	// The two-word gap at 1 is too small; the heap grows.
	big := mustAlloc(t, ms, 3)
	assert.Equal(t, 4, big.Start)
	assert.Equal(t, 8, ms.HeapSize())

	fit := mustAlloc(t, ms, 2)
	assert.Equal(t, 1, fit.Start, "gap reused")
	require.NoError(t, ms.Verify())
}

func TestMarkSweep_BumpDefersReuseToCompaction(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyBump)

	a := mustAlloc(t, ms, 1)
	mustAlloc(t, ms, 1)
	mustAlloc(t, ms, 1)

	cycle := mustGC(t, ms, a)
	require.False(t, cycle.Compacted)

	d := mustAlloc(t, ms, 1)
	assert.Equal(t, 3, d.Start, "freed gap skipped")
	e := mustAlloc(t, ms, 1)
	assert.Equal(t, 4, e.Start)
	assert.Equal(t, 8, ms.HeapSize())

	cycle = mustGC(t, ms, a)
	require.True(t, cycle.Compacted)
	assert.Equal(t, 4, ms.HeapSize())

	f := mustAlloc(t, ms, 1)
	assert.Equal(t, 1, f.Start, "cursor reset by compaction")
	assert.Equal(t, "bump", ms.Stats().Strategy)
}

func TestMarkSweep_Errors(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyFirstFit)

	_, err := ms.Allocate(0)
	require.ErrorIs(t, err, ErrNeedSmall)

	_, err = ms.GetWord(-1)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = ms.GetWord(ms.HeapSize())
	require.ErrorIs(t, err, ErrOutOfBounds)
	require.ErrorIs(t, ms.SetWord(ms.HeapSize(), 1), ErrOutOfBounds)
	require.ErrorIs(t, ms.SetPtr(ms.HeapSize(), 0), ErrOutOfBounds)
	require.ErrorIs(t, ms.SetPtr(0, -1), ErrBadTarget)

	a := mustAlloc(t, ms, 2)
	require.NoError(t, ms.Free(a))
	require.ErrorIs(t, ms.Free(a), ErrNotLive, "double free")
	assert.Zero(t, ms.HeapUsage(), "usage untouched by double free")

	b := mustAlloc(t, ms, 1)
	b.Marked = true
	_, err = ms.GC(a)
	require.ErrorIs(t, err, ErrStaleRoot)
	assert.True(t, b.Marked, "failed collection leaves marks alone")
	assert.Equal(t, 1, ms.NumAllocations())
}

func TestMarkSweep_ForeignAllocation(t *testing.T) {
	ms1 := newTestHeap(t, 4, StrategyFirstFit)
	ms2 := newTestHeap(t, 4, StrategyFirstFit)

	a := mustAlloc(t, ms1, 1)
	mustAlloc(t, ms2, 1)

	require.ErrorIs(t, ms2.Free(a), ErrNotLive)
	_, err := ms2.GC(a)
	require.ErrorIs(t, err, ErrStaleRoot)
	assert.Equal(t, 1, ms2.HeapUsage())
}

func TestMarkSweep_MarkThenSweep(t *testing.T) {
	ms := newTestHeap(t, 0, StrategyFirstFit)

	a := mustAlloc(t, ms, 1)
	b := mustAlloc(t, ms, 1)
	mustAlloc(t, ms, 1)
	require.NoError(t, ms.SetPtr(a.Start, b.Start))

	_, err := ms.Mark(a)
	require.NoError(t, err)
	freed, err := ms.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, freed)
	assert.Equal(t, 2, ms.HeapUsage())
	require.NoError(t, ms.Verify())
}

func TestMarkSweep_Stats(t *testing.T) {
	ms := newTestHeap(t, 4, StrategyFirstFit)

	for range 3 {
		mustAlloc(t, ms, 3)
	}
	mustGC(t, ms)

	st := ms.Stats()
	assert.Equal(t, "firstfit", st.Strategy)
	assert.Equal(t, 3, st.Alloc.AllocCalls)
	assert.Equal(t, 1, st.Alloc.AllocFastPath)
	assert.Equal(t, 2, st.Alloc.AllocSlowPath)
	assert.Equal(t, 2, st.Alloc.GrowCalls)
	assert.Equal(t, 1, st.GC.Cycles)
	assert.Equal(t, 1, st.GC.Compactions)
	assert.EqualValues(t, 9, st.GC.FreedWords)
	assert.Zero(t, st.HeapSize)
}
