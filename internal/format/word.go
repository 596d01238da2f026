// Package format holds the word-level encoding shared by the heap, the
// allocator and the collector: the pointer tag bit, offset limits and the
// segment arithmetic used for growth and shrinking.
package format

const (
	// PointerTag is bit 31 of a heap word. When set, the low 31 bits are the
	// offset of an allocation start.
	PointerTag uint32 = 0x80000000

	// AddrMask selects the offset bits of a pointer word.
	AddrMask uint32 = 0x7FFFFFFF

	// MaxHeapWords is the largest heap a 31-bit offset can address.
	MaxHeapWords = 1 << 31

	// DefaultSegmentSize is the growth and shrink granularity in words (1 MiB of
	// 32-bit words).
	DefaultSegmentSize = 1 << 18
)

// IsPointer reports whether w carries the pointer tag.
func IsPointer(w uint32) bool {
	return w&PointerTag != 0
}

// TagAddr encodes off as a pointer word.
//
// Example:
//
//	TagAddr(0)  = 0x80000000
//	TagAddr(12) = 0x8000000C
func TagAddr(off int) uint32 {
	return uint32(off) | PointerTag
}

// Untag returns the offset carried by a pointer word.
func Untag(w uint32) int {
	return int(w & AddrMask)
}
