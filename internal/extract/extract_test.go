package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIsolatesSpecials(t *testing.T) {
	e := New([]Special{
		{ID: 1, Bytes: []byte("<|endoftext|>")},
		{ID: 2, Bytes: []byte("[INST]")},
	})

	parts := e.Split("hello[INST]world<|endoftext|>")
	assert.Equal(t, []Part{
		{Text: "hello", Special: TokenInvalid},
		{Text: "[INST]", Special: 2},
		{Text: "world", Special: TokenInvalid},
		{Text: "<|endoftext|>", Special: 1},
	}, parts)
}

func TestSplitLongestMatchWins(t *testing.T) {
	// "<|end|>" is a prefix of "<|end|><|end|>"; the longer literal is
	// preferred on overlaps.
	e := New([]Special{
		{ID: 1, Bytes: []byte("<|end|>")},
		{ID: 2, Bytes: []byte("<|end|><|end|>")},
	})

	parts := e.Split("a<|end|><|end|>b")
	assert.Equal(t, []Part{
		{Text: "a", Special: TokenInvalid},
		{Text: "<|end|><|end|>", Special: 2},
		{Text: "b", Special: TokenInvalid},
	}, parts)
}

func TestSplitNoSpecials(t *testing.T) {
	var e *Extractor
	parts := e.Split("plain text")
	assert.Equal(t, []Part{{Text: "plain text", Special: TokenInvalid}}, parts)
}

func TestSplitEmptyText(t *testing.T) {
	e := New([]Special{{ID: 1, Bytes: []byte("<s>")}})
	assert.Empty(t, e.Split(""))
}
