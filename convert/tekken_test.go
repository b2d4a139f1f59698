package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallTekkenVocab(n int) []TekkenToken {
	tokens := make([]TekkenToken, n)
	for i := range tokens {
		tokens[i] = TekkenToken{
			Rank:  uint32(i),
			Bytes: []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)},
		}
	}
	return tokens
}

func TestConvertTekkenDefaults(t *testing.T) {
	tokens := smallTekkenVocab(100)
	def, err := ConvertTekken(tokens, `\w+|\s+`, 0, 0)
	require.NoError(t, err)
	assert.Len(t, def.Specials, len(tekkenFixedSpecials))
	assert.Len(t, def.Model.Vocab, 100-len(tekkenFixedSpecials))
	assert.Equal(t, "<unk>", string(def.Specials[0].Bytes))
}

func TestConvertTekkenCapsVocab(t *testing.T) {
	tokens := smallTekkenVocab(200)
	def, err := ConvertTekken(tokens, `\w+|\s+`, 120, 14)
	require.NoError(t, err)
	assert.Len(t, def.Specials, 14)
	assert.Len(t, def.Model.Vocab, 120-14)
}

func TestConvertTekkenFillerSpecials(t *testing.T) {
	tokens := smallTekkenVocab(50)
	def, err := ConvertTekken(tokens, `\w+|\s+`, 0, 20)
	require.NoError(t, err)
	require.Len(t, def.Specials, 20)
	found := false
	for _, s := range def.Specials {
		if string(s.Bytes) == "<SPECIAL_14>" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestConvertTekkenTooManyTokens(t *testing.T) {
	tokens := smallTekkenVocab(10)
	_, err := ConvertTekken(tokens, `\w+|\s+`, 1000, 14)
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestConvertTekkenInvalidPattern(t *testing.T) {
	tokens := smallTekkenVocab(10)
	_, err := ConvertTekken(tokens, `(unterminated`, 0, 0)
	assert.Error(t, err)
}
