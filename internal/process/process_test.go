package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrip(t *testing.T) {
	ids := []uint32{9, 9, 1, 2, 3, 9, 9, 9}
	got := Apply(ids, Step{Kind: Strip, ID: 9, StripL: 1, StripR: 2})
	assert.Equal(t, []uint32{9, 1, 2, 3}, got)
}

func TestStripNothingToStrip(t *testing.T) {
	ids := []uint32{1, 2, 3}
	got := Apply(ids, Step{Kind: Strip, ID: 9, StripL: 5, StripR: 5})
	assert.Equal(t, []uint32{1, 2, 3}, got)
}

func TestCollapse(t *testing.T) {
	ids := []uint32{1, 9, 9, 9, 2, 9, 9, 3}
	got := Apply(ids, Step{Kind: Collapse, ID: 9})
	assert.Equal(t, []uint32{1, 9, 2, 9, 3}, got)
}

func TestTruncateLeft(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	got := Apply(ids, Step{Kind: Truncate, Length: 3, Direction: Left})
	assert.Equal(t, []uint32{1, 2, 3}, got)
}

func TestTruncateRight(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	got := Apply(ids, Step{Kind: Truncate, Length: 3, Direction: Right})
	assert.Equal(t, []uint32{3, 4, 5}, got)
}

func TestTruncateNoOpWhenShorter(t *testing.T) {
	ids := []uint32{1, 2}
	got := Apply(ids, Step{Kind: Truncate, Length: 5, Direction: Left})
	assert.Equal(t, []uint32{1, 2}, got)
}

func TestPadRight(t *testing.T) {
	ids := []uint32{1, 2, 3}
	got := Apply(ids, Step{Kind: Pad, Length: 5, ID: 0, Direction: Right})
	assert.Equal(t, []uint32{1, 2, 3, 0, 0}, got)
}

func TestPadLeft(t *testing.T) {
	ids := []uint32{1, 2, 3}
	got := Apply(ids, Step{Kind: Pad, Length: 5, ID: 0, Direction: Left})
	assert.Equal(t, []uint32{0, 0, 1, 2, 3}, got)
}

func TestPadWithStrideRoundsUp(t *testing.T) {
	ids := []uint32{1, 2, 3}
	got := Apply(ids, Step{Kind: Pad, Length: 4, ID: 0, Stride: 8, Direction: Right})
	assert.Len(t, got, 8)
}

func TestPadNoOpWhenAlreadyLongEnough(t *testing.T) {
	ids := []uint32{1, 2, 3, 4, 5}
	got := Apply(ids, Step{Kind: Pad, Length: 3, ID: 0, Direction: Right})
	assert.Equal(t, ids, got)
}

func TestPipeline(t *testing.T) {
	ids := []uint32{9, 1, 2, 9, 9, 3, 9}
	got := Pipeline(ids, []Step{
		{Kind: Strip, ID: 9, StripL: 1, StripR: 1},
		{Kind: Collapse, ID: 9},
	})
	assert.Equal(t, []uint32{1, 2, 9, 3}, got)
}
