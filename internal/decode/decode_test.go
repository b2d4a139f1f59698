package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBasic(t *testing.T) {
	d := New([]Token{
		{ID: 0, Bytes: []byte("hello")},
		{ID: 1, Bytes: []byte(" world")},
	}, nil)
	out, err := d.Decode([]uint32{0, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out))
}

func TestDecodeSuppressesControlSpecials(t *testing.T) {
	d := New(
		[]Token{{ID: 0, Bytes: []byte("hi")}},
		[]Special{{ID: 1, Bytes: []byte("<pad>"), Kind: KindControl}},
	)
	out, err := d.Decode([]uint32{1, 0, 1}, false)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(out))

	out, err = d.Decode([]uint32{1, 0, 1}, true)
	require.NoError(t, err)
	assert.Equal(t, "<pad>hi<pad>", string(out))
}

func TestDecodeNonControlSpecialAlwaysShown(t *testing.T) {
	d := New(nil, []Special{{ID: 1, Bytes: []byte("<unk>"), Kind: KindUnknown}})
	out, err := d.Decode([]uint32{1}, false)
	require.NoError(t, err)
	assert.Equal(t, "<unk>", string(out))
}

func TestDecodeInvalidToken(t *testing.T) {
	d := New(nil, nil)
	_, err := d.Decode([]uint32{5}, false)
	require.Error(t, err)
	var invalid *InvalidTokenError
	assert.ErrorAs(t, err, &invalid)
	assert.Equal(t, uint32(5), invalid.Token)
}

func TestPipelineRunsExtendThenStrip(t *testing.T) {
	step1, err := CompileStep(Extend, "", "", '_', 2, 0, false)
	require.NoError(t, err)
	step2, err := CompileStep(Strip, "", "", '_', 0, 1, false)
	require.NoError(t, err)
	out := Pipeline([]byte("ab_"), []Step{step1, step2})
	assert.Equal(t, "__ab", string(out))
}

func TestApplyExtend(t *testing.T) {
	out := Apply([]byte("aba"), Step{Kind: Extend, Character: 'a', Left: 1, Right: 2})
	assert.Equal(t, "aabaaa", string(out))

	out = Apply([]byte("aba"), Step{Kind: Extend, Character: 'a', Left: 1, Right: 2, Pad: true})
	assert.Equal(t, "abaa", string(out))
}

func TestApplyStrip(t *testing.T) {
	out := Apply([]byte("aabaaa"), Step{Kind: Strip, Character: 'a', Left: 1, Right: 2})
	assert.Equal(t, "aba", string(out))
}

func TestApplyCollapse(t *testing.T) {
	out := Apply([]byte("abbbba bbb"), Step{Kind: Collapse, Character: 'b'})
	assert.Equal(t, "aba b", string(out))
}

func TestApplyReplace(t *testing.T) {
	step, err := CompileStep(Replace, "bbb", "a", 0, 0, 0, false)
	require.NoError(t, err)
	out := Apply([]byte("aabbba"), step)
	assert.Equal(t, "aaaa", string(out))
}

func TestApplyExtendPad(t *testing.T) {
	out := Apply([]byte(" already"), Step{Kind: Extend, Character: ' ', Left: 1, Pad: true})
	assert.Equal(t, " already", string(out))
}
