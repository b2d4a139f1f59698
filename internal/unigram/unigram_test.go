package unigram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idOf(vocab []Token, s string) uint32 {
	for _, t := range vocab {
		if string(t.Bytes) == s {
			return t.ID
		}
	}
	panic("not found: " + s)
}

func baseVocab() []Token {
	return []Token{
		{ID: 0, Bytes: []byte("a"), Score: -1},
		{ID: 1, Bytes: []byte("b"), Score: -1},
		{ID: 2, Bytes: []byte("c"), Score: -1},
		{ID: 3, Bytes: []byte("ab"), Score: -0.5},
		{ID: 4, Bytes: []byte("bc"), Score: -0.5},
		{ID: 5, Bytes: []byte("abc"), Score: -0.2},
	}
}

func TestEncodePrefersHighestScorePath(t *testing.T) {
	vocab := baseVocab()
	e := New(vocab, 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "abc", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	// whole-word "abc" (-0.2) beats "ab"+"c" (-0.5-1=-1.5) and "a"+"bc".
	assert.Equal(t, []uint32{idOf(vocab, "abc")}, out)
}

func TestEncodeFallsBackToTwoPieces(t *testing.T) {
	vocab := []Token{
		{ID: 0, Bytes: []byte("a"), Score: -1},
		{ID: 1, Bytes: []byte("b"), Score: -1},
		{ID: 2, Bytes: []byte("bc"), Score: -0.5},
	}
	e := New(vocab, 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "abc", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	// no whole-word entry; "a"+"bc" (-1.5) beats "a"+"b"+... paths.
	assert.Equal(t, []uint32{idOf(vocab, "a"), idOf(vocab, "bc")}, out)
}

func TestEncodeUnknownFallbackWithoutUnknownErrors(t *testing.T) {
	vocab := []Token{
		{ID: 0, Bytes: []byte("a"), Score: -1},
	}
	e := New(vocab, 0, false, []Fallback{FallbackUnknown})

	// "z" has no vocab entry; the Unknown fallback is skipped when no
	// unknown special is defined, exhausting the chain.
	_, err := e.Encode([]TextPart{{Text: "az", Special: specialInvalid}}, nil)
	require.Error(t, err)
	var invalid *InvalidPieceError
	assert.ErrorAs(t, err, &invalid)
}

func TestEncodeUnknownFallback(t *testing.T) {
	vocab := []Token{
		{ID: 0, Bytes: []byte("a"), Score: -1},
	}
	unk := uint32(77)
	e := New(vocab, unk, true, []Fallback{FallbackUnknown})

	out, err := e.Encode([]TextPart{{Text: "az", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{idOf(vocab, "a"), unk}, out)
}

func TestEncodeSpecialPassthrough(t *testing.T) {
	e := New(nil, 0, false, nil)
	out, err := e.Encode([]TextPart{{Text: "", Special: 5}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5}, out)
}

func TestEncodeWholeWordSingleToken(t *testing.T) {
	vocab := baseVocab()
	e := New(vocab, 0, false, []Fallback{FallbackBytes})
	out, err := e.Encode([]TextPart{{Text: "abc", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestEncodeSplitsWholeWordVocabHitWhenPiecesScoreBetter(t *testing.T) {
	// "ab" is in the vocab but with a far worse score than "a"+"b"; the
	// segmentation must come out of the DP, not a whole-part shortcut.
	vocab := []Token{
		{ID: 0, Bytes: []byte("a"), Score: -0.1},
		{ID: 1, Bytes: []byte("b"), Score: -0.1},
		{ID: 2, Bytes: []byte("ab"), Score: -5.0},
	}
	e := New(vocab, 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "ab", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	// "a"+"b" (-0.2) beats whole-word "ab" (-5.0).
	assert.Equal(t, []uint32{0, 1}, out)
}

func TestEncodeNeverSplitsCharacterInterior(t *testing.T) {
	// The raw UTF-8 bytes of "é" (0xC3 0xA9) are themselves vocab entries
	// with near-zero cost, as a byte-fallback sentencepiece vocab has, but
	// mid-character byte offsets are not valid segmentation states: "é"
	// must be kept whole even though splitting it would score better.
	vocab := []Token{
		{ID: 0, Bytes: []byte{0xC3}, Score: -0.01},
		{ID: 1, Bytes: []byte{0xA9}, Score: -0.01},
		{ID: 2, Bytes: []byte("é"), Score: -1.0},
		{ID: 3, Bytes: []byte("a"), Score: -0.5},
	}
	e := New(vocab, 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "éa", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, out)
}

func TestEncodeUnresolvedCharacterFallsBackToBytes(t *testing.T) {
	// A character absent from the vocab is handed to fallback whole; the
	// Bytes fallback then resolves it at byte granularity.
	vocab := []Token{
		{ID: 0, Bytes: []byte{0xC3}, Score: -0.01},
		{ID: 1, Bytes: []byte{0xA9}, Score: -0.01},
		{ID: 2, Bytes: []byte("a"), Score: -0.5},
	}
	e := New(vocab, 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "éa", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2}, out)
}
