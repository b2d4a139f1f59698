// Package split executes the tokenizer's splitter pipeline: an
// ordered list of rules, each producing byte-index ranges over the current
// text, chained so each rule operates on the ranges of the previous one.
package split

import (
	"bytes"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// Behavior controls how a rule's matches combine with the gaps between them.
type Behavior uint8

const (
	Match Behavior = iota
	Remove
	Isolate
	Merge
	MergeLeft
	MergeRight
)

// Range is a byte-offset [Start, End) span into the text a Rule ran over.
type Range struct {
	Start, End int
}

// Kind tags the variant carried by a Rule.
type Kind uint8

const (
	Pattern Kind = iota
	Character
	// Whitespace and WhitespacePunctuation are UAX #29 word-boundary
	// presets (see presets.go); they ignore Regex/Character and always
	// behave as Isolate, matching the "Whitespace"/"WhitespacePunctuation"
	// presets converters emit.
	Whitespace
	WhitespacePunctuation
)

// Rule is a single splitter pipeline entry, pre-compiled so Split never fails
// at run time.
type Rule struct {
	Kind      Kind
	Regex     *regexutil.Regex // Pattern
	Character rune             // Character
	Behavior  Behavior
}

// findMatches returns the raw (start, end) matches for a rule before
// behavior is applied.
func findMatches(text string, rule Rule) []Range {
	switch rule.Kind {
	case Pattern:
		idx := rule.Regex.FindAllIndex(text)
		out := make([]Range, len(idx))
		for i, m := range idx {
			out[i] = Range{m[0], m[1]}
		}
		return out
	case Character:
		return findCharMatches(text, rule.Character)
	}
	return nil
}

func findCharMatches(text string, character rune) []Range {
	if character == 0 {
		return nil
	}
	var out []Range
	needle := []byte(string(character))
	data := []byte(text)
	if len(needle) == 1 {
		for i := bytes.IndexByte(data, needle[0]); i >= 0; {
			out = append(out, Range{i, i + 1})
			next := bytes.IndexByte(data[i+1:], needle[0])
			if next < 0 {
				break
			}
			i = i + 1 + next
		}
		return out
	}
	start := 0
	for {
		i := bytes.Index(data[start:], needle)
		if i < 0 {
			break
		}
		pos := start + i
		out = append(out, Range{pos, pos + len(needle)})
		start = pos + len(needle)
	}
	return out
}

// Apply runs a single Rule over text and returns ranges relative to text.
func Apply(text string, rule Rule) []Range {
	if text == "" {
		return nil
	}
	if rule.Kind == Whitespace {
		return WhitespaceRanges(text)
	}
	if rule.Kind == WhitespacePunctuation {
		return WhitespacePunctuationRanges(text)
	}
	matches := findMatches(text, rule)
	length := len(text)
	switch rule.Behavior {
	case Match:
		return matches
	case Remove:
		return invert(matches, length)
	case Isolate:
		return expand(matches, length)
	case Merge:
		return expand(mergeAdjacent(matches), length)
	case MergeLeft:
		return mergeLeft(matches, length)
	case MergeRight:
		return mergeRight(matches, length)
	}
	return matches
}

func invert(matches []Range, length int) []Range {
	var out []Range
	last := 0
	for _, m := range matches {
		if m.Start != last {
			out = append(out, Range{last, m.Start})
		}
		last = m.End
	}
	if last < length {
		out = append(out, Range{last, length})
	}
	return out
}

func expand(matches []Range, length int) []Range {
	var out []Range
	last := 0
	for _, m := range matches {
		if m.Start != last {
			out = append(out, Range{last, m.Start})
		}
		last = m.End
		out = append(out, m)
	}
	if last < length {
		out = append(out, Range{last, length})
	}
	return out
}

func mergeAdjacent(matches []Range) []Range {
	if len(matches) == 0 {
		return nil
	}
	var out []Range
	last := 0
	for _, m := range matches {
		if m.Start == last && len(out) > 0 {
			out[len(out)-1].End = m.End
		} else {
			out = append(out, m)
		}
		last = m.End
	}
	return out
}

func mergeLeft(matches []Range, length int) []Range {
	var out []Range
	last := 0
	for _, m := range matches {
		if m.Start != last {
			out = append(out, Range{last, m.End})
		} else {
			out = append(out, m)
		}
		last = m.End
	}
	if last < length {
		out = append(out, Range{last, length})
	}
	return out
}

func mergeRight(matches []Range, length int) []Range {
	if len(matches) == 0 {
		return []Range{{0, length}}
	}
	var out []Range
	last := 0
	for _, m := range matches {
		if m.Start != last && len(out) > 0 {
			out[len(out)-1].End = m.Start
		}
		out = append(out, m)
		last = m.End
	}
	if last < length {
		out[len(out)-1].End = length
	}
	if out[0].Start != 0 {
		out = append([]Range{{0, out[0].Start}}, out...)
	}
	return out
}

// Pipeline runs every rule in sequence, each subsequent rule re-splitting
// only the ranges produced by the previous rule.
func Pipeline(text string, rules []Rule) []Range {
	ranges := []Range{{0, len(text)}}
	for _, rule := range rules {
		var next []Range
		for _, r := range ranges {
			sub := Apply(text[r.Start:r.End], rule)
			for _, s := range sub {
				next = append(next, Range{r.Start + s.Start, r.Start + s.End})
			}
		}
		ranges = next
	}
	return ranges
}
