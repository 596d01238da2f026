package heap

import "errors"

var (
	// ErrOutOfBounds indicates a word access outside [0, Size()).
	ErrOutOfBounds = errors.New("heap: offset out of bounds")

	// ErrBadTarget indicates a pointer target that does not fit in 31 bits.
	ErrBadTarget = errors.New("heap: pointer target exceeds address space")

	// ErrHeapLimit indicates growth past the 31-bit addressable word limit.
	ErrHeapLimit = errors.New("heap: size exceeds addressable limit")

	// ErrBadSegment indicates a non-positive segment size.
	ErrBadSegment = errors.New("heap: segment size must be positive")
)
