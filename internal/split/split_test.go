package split

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

const referenceText = "aaa bbb  ccc   ddd"

func ranges(pairs ...[2]int) []Range {
	out := make([]Range, len(pairs))
	for i, p := range pairs {
		out[i] = Range{p[0], p[1]}
	}
	return out
}

func TestSplitBehaviors(t *testing.T) {
	re := regexutil.MustCompile(`[ ]`)
	cases := []struct {
		name     string
		behavior Behavior
		want     []Range
	}{
		{"match", Match, ranges([2]int{3, 4}, [2]int{7, 8}, [2]int{8, 9}, [2]int{12, 13}, [2]int{13, 14}, [2]int{14, 15})},
		{"remove", Remove, ranges([2]int{0, 3}, [2]int{4, 7}, [2]int{9, 12}, [2]int{15, 18})},
		{"isolate", Isolate, ranges([2]int{0, 3}, [2]int{3, 4}, [2]int{4, 7}, [2]int{7, 8}, [2]int{8, 9}, [2]int{9, 12}, [2]int{12, 13}, [2]int{13, 14}, [2]int{14, 15}, [2]int{15, 18})},
		{"merge", Merge, ranges([2]int{0, 3}, [2]int{3, 4}, [2]int{4, 7}, [2]int{7, 9}, [2]int{9, 12}, [2]int{12, 15}, [2]int{15, 18})},
		{"mergeLeft", MergeLeft, ranges([2]int{0, 4}, [2]int{4, 8}, [2]int{8, 9}, [2]int{9, 13}, [2]int{13, 14}, [2]int{14, 15}, [2]int{15, 18})},
		{"mergeRight", MergeRight, ranges([2]int{0, 3}, [2]int{3, 7}, [2]int{7, 8}, [2]int{8, 12}, [2]int{12, 13}, [2]int{13, 14}, [2]int{14, 18})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := Rule{Kind: Pattern, Regex: re, Behavior: tc.behavior}
			got := Apply(referenceText, rule)
			assert.Equal(t, tc.want, got)

			charRule := Rule{Kind: Character, Character: ' ', Behavior: tc.behavior}
			gotChar := Apply(referenceText, charRule)
			assert.Equal(t, tc.want, gotChar)
		})
	}
}

func TestPipelineChains(t *testing.T) {
	re := regexutil.MustCompile(`[ ]`)
	got := Pipeline(referenceText, []Rule{{Kind: Pattern, Regex: re, Behavior: Remove}})
	assert.Equal(t, ranges([2]int{0, 3}, [2]int{4, 7}, [2]int{9, 12}, [2]int{15, 18}), got)
}

func TestEmptyInput(t *testing.T) {
	re := regexutil.MustCompile(`[ ]`)
	assert.Empty(t, Apply("", Rule{Kind: Pattern, Regex: re, Behavior: Match}))
}
