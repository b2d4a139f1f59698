package kitoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytePairDefinition(t *testing.T) *Definition {
	t.Helper()
	model := Model{
		Kind: ModelBytePair,
		Vocab: Vocab{
			{ID: 0, Bytes: []byte("a")},
			{ID: 1, Bytes: []byte("b")},
			{ID: 2, Bytes: []byte("ab")},
		},
	}
	specials := SpecialVocab{
		{ID: 10, Bytes: []byte("<s>"), Kind: SpecialControl, Ident: "bos"},
		{ID: 11, Bytes: []byte("</s>"), Kind: SpecialControl, Ident: "eos"},
	}
	config := Configuration{
		Templates: []Template{
			{Content: "<s>", Position: PositionSequenceStart},
			{Content: "</s>", Position: PositionSequenceEnd},
		},
	}
	def, err := NewDefinition(Metadata{Source: "kitoken"}, model, specials, config)
	require.NoError(t, err)
	return def
}

func TestTokenizerEncodeBytePairMerges(t *testing.T) {
	tok, err := New(bytePairDefinition(t))
	require.NoError(t, err)

	ids, err := tok.Encode("aab", false)
	require.NoError(t, err)
	assert.Equal(t, []TokenID{10, 0, 2, 11}, ids)
}

func TestTokenizerDecodeSuppressesControlSpecials(t *testing.T) {
	tok, err := New(bytePairDefinition(t))
	require.NoError(t, err)

	out, err := tok.Decode([]TokenID{10, 0, 2, 11}, false)
	require.NoError(t, err)
	assert.Equal(t, "aab", string(out))

	out, err = tok.Decode([]TokenID{10, 0, 2, 11}, true)
	require.NoError(t, err)
	assert.Equal(t, "<s>aab</s>", string(out))
}

func TestTokenizerEncodeWholeWordFastPath(t *testing.T) {
	tok, err := New(bytePairDefinition(t))
	require.NoError(t, err)

	ids, err := tok.Encode("ab", false)
	require.NoError(t, err)
	assert.Equal(t, []TokenID{10, 2, 11}, ids)
}

func TestTokenizerEncodeUnresolvablePieceReturnsEncodeError(t *testing.T) {
	model := Model{
		Kind: ModelBytePair,
		Vocab: Vocab{
			{ID: 0, Bytes: []byte("a")},
		},
	}
	def, err := NewDefinition(Metadata{Source: "kitoken"}, model, nil, Configuration{})
	require.NoError(t, err)
	tok, err := New(def)
	require.NoError(t, err)

	_, err = tok.Encode("z", false)
	require.Error(t, err)
	var encErr *EncodeError
	assert.ErrorAs(t, err, &encErr)
	assert.Equal(t, []byte("z"), encErr.Piece)
}

func TestTokenizerDecodeInvalidTokenReturnsDecodeError(t *testing.T) {
	tok, err := New(bytePairDefinition(t))
	require.NoError(t, err)

	_, err = tok.Decode([]TokenID{999}, false)
	require.Error(t, err)
	var decErr *DecodeError
	assert.ErrorAs(t, err, &decErr)
	assert.Equal(t, TokenID(999), decErr.Token)
}

func TestTokenizerEncodeEmptyInput(t *testing.T) {
	model := Model{
		Kind:  ModelBytePair,
		Vocab: Vocab{{ID: 0, Bytes: []byte("a")}},
	}
	def, err := NewDefinition(Metadata{Source: "kitoken"}, model, nil, Configuration{})
	require.NoError(t, err)
	tok, err := New(def)
	require.NoError(t, err)

	ids, err := tok.Encode("", false)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTokenizerEncodeSpecialExtraction(t *testing.T) {
	model := Model{
		Kind: ModelBytePair,
		Vocab: Vocab{
			{ID: 0, Bytes: []byte("h")},
			{ID: 1, Bytes: []byte("i")},
		},
	}
	specials := SpecialVocab{
		{ID: 5, Bytes: []byte("<sep>"), Kind: SpecialControl, Ident: "sep", Extract: true},
	}
	config := Configuration{Fallback: []Fallback{FallbackSkip}}
	def, err := NewDefinition(Metadata{Source: "kitoken"}, model, specials, config)
	require.NoError(t, err)
	tok, err := New(def)
	require.NoError(t, err)

	ids, err := tok.Encode("hi<sep>hi", true)
	require.NoError(t, err)
	assert.Equal(t, []TokenID{0, 1, 5, 0, 1}, ids)

	ids, err = tok.Encode("hi<sep>hi", false)
	require.NoError(t, err)
	assert.NotContains(t, ids, TokenID(5))
}
