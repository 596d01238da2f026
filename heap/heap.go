// Package heap implements the flat, word-addressed backing store of the
// memory manager.
//
// A Heap is a single contiguous array of 32-bit words addressed by offset in
// [0, Size()). Capacity grows and shrinks in whole segments. The heap itself
// knows nothing about allocations; package alloc partitions it into live
// regions and package gc traces and relocates them.
//
// # Word encoding
//
// A word with bit 31 set is a pointer whose low 31 bits are the start offset
// of an allocation. Any other word is opaque data:
//
//	h.SetPtr(a.Start, b.Start) // a[0] -> b
//	h.SetWord(a.Start+1, 42)   // a[1] = 42
//
// # Thread Safety
//
// Heap instances are not thread-safe. The owner must exclude concurrent
// access, including for the duration of a collection.
package heap

import (
	"fmt"

	"github.com/joshuapare/marksweep/internal/buf"
	"github.com/joshuapare/marksweep/internal/format"
)

// Config controls the initial shape of a Heap.
type Config struct {
	// SegmentSize is the growth and shrink granularity in words.
	// Default: format.DefaultSegmentSize.
	SegmentSize int

	// InitialSize is the starting capacity in words, rounded up to a whole
	// number of segments. Default: one segment.
	InitialSize int
}

// Heap is the word array plus its segment size.
type Heap struct {
	words   []uint32
	segment int
}

// New creates a heap from cfg.
func New(cfg Config) (*Heap, error) {
	seg := cfg.SegmentSize
	if seg == 0 {
		seg = format.DefaultSegmentSize
	}
	if seg < 0 {
		return nil, ErrBadSegment
	}

	size := seg
	if cfg.InitialSize > 0 {
		var ok bool
		size, ok = buf.MulOverflowSafe((cfg.InitialSize-1)/seg+1, seg)
		if !ok {
			return nil, fmt.Errorf("heap: initial size %d: %w", cfg.InitialSize, ErrHeapLimit)
		}
	}
	if size > format.MaxHeapWords {
		return nil, fmt.Errorf("heap: initial size %d: %w", size, ErrHeapLimit)
	}

	return &Heap{
		words:   make([]uint32, size),
		segment: seg,
	}, nil
}

// Size returns the capacity in words.
func (h *Heap) Size() int { return len(h.words) }

// SegmentSize returns the growth granularity in words.
func (h *Heap) SegmentSize() int { return h.segment }

// Words returns the backing array. The slice is invalidated by Append and Replace.
func (h *Heap) Words() []uint32 { return h.words }

// Word returns the raw word at off, tag bit included.
func (h *Heap) Word(off int) (uint32, error) {
	if !buf.Has(h.words, off, 1) {
		return 0, fmt.Errorf("read %d (size %d): %w", off, len(h.words), ErrOutOfBounds)
	}
	return h.words[off], nil
}

// SetWord stores v at off unchanged.
func (h *Heap) SetWord(off int, v uint32) error {
	if !buf.Has(h.words, off, 1) {
		return fmt.Errorf("write %d (size %d): %w", off, len(h.words), ErrOutOfBounds)
	}
	h.words[off] = v
	return nil
}

// SetPtr stores a pointer to the allocation starting at target.
func (h *Heap) SetPtr(off, target int) error {
	if target < 0 || uint64(target) > uint64(format.AddrMask) {
		return fmt.Errorf("pointer to %d: %w", target, ErrBadTarget)
	}
	return h.SetWord(off, format.TagAddr(target))
}

// Range returns the words [off, off+n) as a view into the heap.
func (h *Heap) Range(off, n int) ([]uint32, error) {
	words, ok := buf.Slice(h.words, off, n)
	if !ok {
		return nil, fmt.Errorf("range [%d,+%d) (size %d): %w", off, n, len(h.words), ErrOutOfBounds)
	}
	return words, nil
}

// Append grows the heap by n words. Existing words keep their offsets;
// the new region is zero.
func (h *Heap) Append(n int) error {
	if n <= 0 {
		return nil
	}
	newSize, ok := buf.AddOverflowSafe(len(h.words), n)
	if !ok || newSize > format.MaxHeapWords {
		return fmt.Errorf("heap: grow %d by %d: %w", len(h.words), n, ErrHeapLimit)
	}

	newWords := make([]uint32, newSize)
	copy(newWords, h.words)
	h.words = newWords
	return nil
}

// Replace installs words as the new backing array. Used by compaction after
// live data has been copied into words.
func (h *Heap) Replace(words []uint32) {
	h.words = words
}
