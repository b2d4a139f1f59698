package kitoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionBinaryRoundTrip(t *testing.T) {
	def := bytePairDefinition(t)

	data, err := def.MarshalBinary()
	require.NoError(t, err)

	got, err := DefinitionFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, def.Meta, got.Meta)
	assert.Equal(t, def.Model, got.Model)
	assert.Equal(t, def.Specials, got.Specials)
	assert.Equal(t, def.Config, got.Config)

	tok, err := New(got)
	require.NoError(t, err)
	ids, err := tok.Encode("aab", false)
	require.NoError(t, err)
	assert.Equal(t, []TokenID{10, 0, 2, 11}, ids)
}

func TestDefinitionBinaryRoundTripIsByteExact(t *testing.T) {
	def := bytePairDefinition(t)
	data1, err := def.MarshalBinary()
	require.NoError(t, err)

	got, err := DefinitionFromBytes(data1)
	require.NoError(t, err)

	data2, err := got.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data1, data2)
}

func TestDefinitionsEqualIgnoresMetadataOrder(t *testing.T) {
	a := bytePairDefinition(t)
	b := bytePairDefinition(t)

	// Definitions built separately carry different correlation ids.
	assert.False(t, DefinitionsEqual(a, b))

	b.Meta.Meta = append([]KeyValue(nil), a.Meta.Meta...)
	b.Meta.Meta = append(b.Meta.Meta, KeyValue{Key: "origin", Value: "test"})
	a.Meta.Meta = append([]KeyValue{{Key: "origin", Value: "test"}}, a.Meta.Meta...)
	assert.True(t, DefinitionsEqual(a, b))
}

func TestDefinitionFromBytesRejectsCorruptHeader(t *testing.T) {
	def := bytePairDefinition(t)
	data, err := def.MarshalBinary()
	require.NoError(t, err)
	data[0] = 'X'

	_, err = DefinitionFromBytes(data)
	assert.Error(t, err)
}
