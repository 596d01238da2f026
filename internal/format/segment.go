package format

// AlignSegment returns n rounded up to the next multiple of seg.
// Zero stays zero so an empty heap compacts to nothing.
//
// Example (seg = 4):
//
//	AlignSegment(0, 4) = 0
//	AlignSegment(1, 4) = 4
//	AlignSegment(4, 4) = 4
//	AlignSegment(5, 4) = 8
func AlignSegment(n, seg int) int {
	if n <= 0 {
		return 0
	}
	return ((n + seg - 1) / seg) * seg
}

// Segments returns how many segments of size seg are needed to hold n words.
func Segments(n, seg int) int {
	return AlignSegment(n, seg) / seg
}
