package bytepair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// byteVocab builds a tiny BPE vocab: all 256 bytes at the front (so every
// byte can always resolve), followed by merges in priority order.
func byteVocab(merges ...string) []Token {
	var vocab []Token
	var id uint32
	for i := 0; i < 256; i++ {
		vocab = append(vocab, Token{ID: id, Bytes: []byte{byte(i)}})
		id++
	}
	for _, m := range merges {
		vocab = append(vocab, Token{ID: id, Bytes: []byte(m)})
		id++
	}
	return vocab
}

func idOf(vocab []Token, s string) uint32 {
	for _, t := range vocab {
		if string(t.Bytes) == s {
			return t.ID
		}
	}
	panic("not found: " + s)
}

func TestEncodeSimpleMerge(t *testing.T) {
	vocab := byteVocab("ab", "abc")
	e := New(vocab, false, "", 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "abc", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{idOf(vocab, "abc")}, out)
}

func TestEncodePrefersLowestRank(t *testing.T) {
	// "bc" has a lower rank (earlier in vocab) than "ab"; merging must
	// follow rank priority, not position.
	vocab := byteVocab("bc", "ab")
	e := New(vocab, false, "", 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "abc", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	// "bc" merges first (lower rank), leaving "a"+"bc".
	assert.Equal(t, []uint32{idOf(vocab, "a"), idOf(vocab, "bc")}, out)
}

func TestEncodeSpecialPassthrough(t *testing.T) {
	vocab := byteVocab()
	e := New(vocab, false, "", 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "", Special: 42}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{42}, out)
}

func TestEncodeWordEndSuffix(t *testing.T) {
	vocab := byteVocab("a</w>")
	vocab = append(vocab, Token{ID: uint32(len(vocab)), Bytes: []byte("</w>")})
	e := New(vocab, false, "</w>", 0, false, []Fallback{FallbackBytes})

	out, err := e.Encode([]TextPart{{Text: "a", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{idOf(vocab, "a</w>")}, out)
}

func TestFallbackUnknown(t *testing.T) {
	vocab := []Token{{ID: 0, Bytes: []byte("x")}}
	unkID := uint32(99)
	e := New(vocab, false, "", unkID, true, []Fallback{FallbackUnknown})

	out, err := e.Encode([]TextPart{{Text: "y", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{unkID}, out)
}

func TestFallbackSkip(t *testing.T) {
	vocab := []Token{{ID: 0, Bytes: []byte("x")}}
	e := New(vocab, false, "", 0, false, []Fallback{FallbackSkip})

	out, err := e.Encode([]TextPart{{Text: "y", Special: specialInvalid}}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFallbackExhaustedReturnsError(t *testing.T) {
	vocab := []Token{{ID: 0, Bytes: []byte("x")}}
	e := New(vocab, false, "", 0, false, nil)

	_, err := e.Encode([]TextPart{{Text: "y", Special: specialInvalid}}, nil)
	require.Error(t, err)
	var invalid *InvalidPieceError
	assert.ErrorAs(t, err, &invalid)
}

func TestHeapPathMatchesLinearPath(t *testing.T) {
	// Run the same 100-byte text through encodePart, which takes the linear
	// path (the text is under encodeLinearLimit), and through mergeHeap
	// directly, and compare the resulting ids.
	merges := []string{"aa", "aaaa", "aaaaaaaa"}
	vocab := byteVocab(merges...)
	text := ""
	for i := 0; i < 100; i++ {
		text += "a"
	}

	linear := New(vocab, false, "", 0, false, []Fallback{FallbackBytes})
	gotLinear, err := linear.encodePart(text, nil, linear.fallback)
	require.NoError(t, err)

	full := text
	pieces := linear.seed(text, full)
	heapPieces := mergeHeap([]byte(full), pieces, linear.rankOf)
	var gotHeap []uint32
	for _, p := range heapPieces {
		b := []byte(full)[p.start:p.end]
		entry, ok := linear.vocab[string(b)]
		require.True(t, ok)
		gotHeap = append(gotHeap, entry.id)
	}
	assert.Equal(t, gotLinear, gotHeap)
}
