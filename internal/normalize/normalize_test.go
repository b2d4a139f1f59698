package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNMT(t *testing.T) {
	out := Apply("aaa‍bbb", Step{Kind: KindNMT})
	assert.Equal(t, "aaa bbb", out)
}

func TestCaseFold(t *testing.T) {
	assert.Equal(t, "aaa bbb", Apply("AAA bbb", Step{Kind: KindCaseFold, Upper: false}))
	assert.Equal(t, "AAA BBB", Apply("AAA bbb", Step{Kind: KindCaseFold, Upper: true}))
}

func TestAppendPrepend(t *testing.T) {
	assert.Equal(t, "aaa bbb", Apply("aaa", Step{Kind: KindAppend, Text: " bbb"}))
	assert.Equal(t, "aaa bbb", Apply("bbb", Step{Kind: KindPrepend, Text: "aaa "}))
}

func TestExtend(t *testing.T) {
	assert.Equal(t, "aabbbaaa", Apply("bbb", Step{Kind: KindExtend, Character: 'a', Left: 2, Right: 3}))
	assert.Equal(t, "aabaaa", Apply("aba", Step{Kind: KindExtend, Character: 'a', Left: 2, Right: 3, Pad: true}))
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "aba", Apply("aaabaaaa", Step{Kind: KindStrip, Character: 'a', Left: 2, Right: 3}))
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "aba b", Apply("abbbba bbb", Step{Kind: KindCollapse, Character: 'b'}))
}

func TestReplace(t *testing.T) {
	pattern, literal, literalText := CompileStep(KindReplace, "b", "a")
	out := Apply("aba bbb", Step{Kind: KindReplace, Pattern: pattern, Literal: literal, LiteralText: literalText, Replacement: "a"})
	assert.Equal(t, "aaa aaa", out)
}

func TestPipeline(t *testing.T) {
	steps := []Step{
		{Kind: KindUnicode, Scheme: NFKC},
		{Kind: KindCaseFold, Upper: false},
	}
	assert.Equal(t, "abc", Pipeline("ABC", steps))
}
