package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-tools/kitoken"
)

func basicPieces() []SentencePiece {
	return []SentencePiece{
		{Bytes: []byte("<unk>"), Type: PieceUnknown},
		{Bytes: []byte("<s>"), Type: PieceControl},
		{Bytes: []byte("</s>"), Type: PieceControl},
		{Bytes: []byte("▁"), Score: -1, Type: PieceNormal},
		{Bytes: []byte("▁the"), Score: -2, Type: PieceNormal},
		{Bytes: []byte("t"), Score: -3, Type: PieceNormal},
		{Bytes: []byte("h"), Score: -4, Type: PieceNormal},
		{Bytes: []byte("e"), Score: -5, Type: PieceNormal},
		{Bytes: []byte("he"), Score: -6, Type: PieceNormal},
		{Bytes: []byte("the"), Score: -7, Type: PieceNormal},
	}
}

func TestConvertSentencePieceUnigram(t *testing.T) {
	def, err := ConvertSentencePiece(basicPieces(), SentencePieceTrainer{}, SentencePieceNormalizer{})
	require.NoError(t, err)
	assert.Equal(t, kitoken.ModelUnigram, def.Model.Kind)
	assert.Len(t, def.Model.Vocab, 7)
	assert.Len(t, def.Model.Scores, 7)
	assert.Len(t, def.Specials, 3)
}

func TestConvertSentencePieceBPE(t *testing.T) {
	trainer := SentencePieceTrainer{
		Present:   true,
		ModelType: SentencePieceBPE,
		UnkPiece:  "<unk>",
		BosPiece:  "<s>",
		EosPiece:  "</s>",
	}
	def, err := ConvertSentencePiece(basicPieces(), trainer, SentencePieceNormalizer{})
	require.NoError(t, err)
	assert.Equal(t, kitoken.ModelBytePair, def.Model.Kind)
	assert.True(t, def.Model.Chars)
	assert.Len(t, def.Model.Vocab, 7)

	var startFound, endFound bool
	for _, tmpl := range def.Config.Templates {
		if tmpl.Position == kitoken.PositionSequenceStart && tmpl.Content == "<s>" {
			startFound = true
		}
		if tmpl.Position == kitoken.PositionSequenceEnd && tmpl.Content == "</s>" {
			endFound = true
		}
	}
	assert.True(t, startFound)
	assert.True(t, endFound)
}

func TestConvertSentencePieceByteFallback(t *testing.T) {
	trainer := SentencePieceTrainer{Present: true, ByteFallback: true}
	def, err := ConvertSentencePiece(basicPieces(), trainer, SentencePieceNormalizer{})
	require.NoError(t, err)
	assert.Equal(t, kitoken.FallbackBytes, def.Config.Fallback[0])
}

func TestConvertSentencePieceRejectsUserDefinedNormalizer(t *testing.T) {
	_, err := ConvertSentencePiece(basicPieces(), SentencePieceTrainer{}, SentencePieceNormalizer{Present: true, Name: "user_defined"})
	assert.ErrorIs(t, err, kitoken.ErrInvalidConfig)
}

func TestConvertSentencePieceEmpty(t *testing.T) {
	_, err := ConvertSentencePiece(nil, SentencePieceTrainer{}, SentencePieceNormalizer{})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestConvertSentencePieceTreatWhitespaceAsSuffix(t *testing.T) {
	trainer := SentencePieceTrainer{Present: true, TreatWhitespaceAsSuffix: true}
	def, err := ConvertSentencePiece(basicPieces(), trainer, SentencePieceNormalizer{})
	require.NoError(t, err)
	last := def.Config.Split[len(def.Config.Split)-1]
	assert.Equal(t, kitoken.SplitMergeLeft, last.Behavior)
}
