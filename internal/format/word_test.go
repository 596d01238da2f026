package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagging(t *testing.T) {
	assert.Equal(t, uint32(0x80000000), TagAddr(0))
	assert.Equal(t, uint32(0x8000000C), TagAddr(12))
	assert.True(t, IsPointer(TagAddr(5)))
	assert.False(t, IsPointer(5))
	assert.False(t, IsPointer(AddrMask))
	assert.Equal(t, 12, Untag(TagAddr(12)))
	assert.Equal(t, int(AddrMask), Untag(0xFFFFFFFF))
}

func TestAlignSegment(t *testing.T) {
	tests := []struct {
		n, seg, want int
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{10000, 1 << 18, 1 << 18},
		{2000000, 1 << 18, 8 << 18},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlignSegment(tt.n, tt.seg), "AlignSegment(%d, %d)", tt.n, tt.seg)
	}
	assert.Equal(t, 2, Segments(5, 4))
	assert.Equal(t, 0, Segments(0, 4))
}
