package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-tools/kitoken"
)

func smallTiktokenVocab(n int) []TiktokenToken {
	tokens := make([]TiktokenToken, n)
	for i := range tokens {
		tokens[i] = TiktokenToken{
			Bytes: []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)},
			ID:    kitoken.TokenID(i),
		}
	}
	return tokens
}

func TestConvertTiktokenP50k(t *testing.T) {
	tokens := smallTiktokenVocab(100)
	def, err := ConvertTiktoken(tokens)
	require.NoError(t, err)
	assert.Equal(t, kitoken.ModelBytePair, def.Model.Kind)
	assert.Len(t, def.Model.Vocab, 100)
	assert.Equal(t, p50kSplitPattern, def.Config.Split[0].Pattern)
	require.Len(t, def.Specials, 4)
	assert.Equal(t, "<|endoftext|>", string(def.Specials[0].Bytes))
}

func TestConvertTiktokenCl100k(t *testing.T) {
	tokens := smallTiktokenVocab(100000)
	def, err := ConvertTiktoken(tokens)
	require.NoError(t, err)
	assert.Equal(t, cl100kSplitPattern, def.Config.Split[0].Pattern)
	assert.Len(t, def.Specials, 7)
}

func TestConvertTiktokenGPT4(t *testing.T) {
	tokens := smallTiktokenVocab(199990)
	def, err := ConvertTiktoken(tokens)
	require.NoError(t, err)
	assert.Equal(t, gpt4SplitPattern, def.Config.Split[0].Pattern)
	assert.Len(t, def.Specials, 2)
}

func TestConvertTiktokenEmpty(t *testing.T) {
	_, err := ConvertTiktoken(nil)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestConvertTiktokenSpecialsSitAboveVocab(t *testing.T) {
	// The real p50k vocabulary has exactly 50256 entries; the special ids
	// start right after it.
	tokens := smallTiktokenVocab(50256)
	def, err := ConvertTiktoken(tokens)
	require.NoError(t, err)
	for _, s := range def.Specials {
		assert.GreaterOrEqual(t, int(s.ID), 50256)
	}
}
