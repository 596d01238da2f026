package alloc

import (
	"fmt"
	"slices"
)

// Table is the live set plus the allocation index.
//
// live is kept sorted by Start; index maps the tagged start address of every
// live allocation to its record. Both always hold the same allocations.
type Table struct {
	live  []*Allocation
	index map[uint32]*Allocation
	usage int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		live:  make([]*Allocation, 0, 64),
		index: make(map[uint32]*Allocation, 64),
	}
}

func cmpStart(a *Allocation, start int) int {
	return a.Start - start
}

// Insert registers a new allocation at [start, start+length).
// The caller guarantees the range is free.
func (t *Table) Insert(start, length int) *Allocation {
	a := &Allocation{Start: start, Length: length}
	i, _ := slices.BinarySearchFunc(t.live, start, cmpStart)
	t.live = slices.Insert(t.live, i, a)
	t.index[a.Tag()] = a
	t.usage += length
	return a
}

// Remove deletes a from the live set and the index.
func (t *Table) Remove(a *Allocation) error {
	if a == nil || !t.Contains(a) {
		return ErrNotLive
	}
	i, found := slices.BinarySearchFunc(t.live, a.Start, cmpStart)
	if !found || t.live[i] != a {
		return fmt.Errorf("%w: %v indexed but missing from live set", ErrNotLive, a)
	}
	t.live = slices.Delete(t.live, i, i+1)
	delete(t.index, a.Tag())
	t.usage -= a.Length
	return nil
}

// Lookup resolves a pointer word to the live allocation starting at its
// target. Untagged words, and tags that match no live start, miss.
func (t *Table) Lookup(w uint32) (*Allocation, bool) {
	a, ok := t.index[w]
	return a, ok
}

// Contains reports whether a itself is live in this table.
func (t *Table) Contains(a *Allocation) bool {
	if a == nil {
		return false
	}
	b, ok := t.index[a.Tag()]
	return ok && b == a
}

// Live returns the live set in ascending Start order. The slice is owned by
// the table and invalidated by the next mutation.
func (t *Table) Live() []*Allocation { return t.live }

// Len returns the number of live allocations.
func (t *Table) Len() int { return len(t.live) }

// IndexLen returns the number of index entries. It equals Len unless the
// table is corrupt.
func (t *Table) IndexLen() int { return len(t.index) }

// Usage returns the total words held by live allocations.
func (t *Table) Usage() int { return t.usage }

// Unmark clears the mark bit of every live allocation.
func (t *Table) Unmark() {
	for _, a := range t.live {
		a.Marked = false
	}
}

// RemoveUnmarked drops every allocation whose mark bit is clear and returns
// how many allocations and words were released. Storage is not zeroed.
func (t *Table) RemoveUnmarked() (count, words int) {
	kept := t.live[:0]
	for _, a := range t.live {
		if a.Marked {
			kept = append(kept, a)
			continue
		}
		delete(t.index, a.Tag())
		t.usage -= a.Length
		count++
		words += a.Length
	}
	clear(t.live[len(kept):])
	t.live = kept
	return count, words
}

// Reindex rebuilds the index from the live set. Required after any Start
// changes.
func (t *Table) Reindex() {
	clear(t.index)
	for _, a := range t.live {
		t.index[a.Tag()] = a
	}
}
