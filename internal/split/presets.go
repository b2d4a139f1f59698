package split

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// WhitespaceRanges splits text on UAX #29 word boundaries, isolating runs of
// whitespace words from runs of non-whitespace words. It backs the
// "Whitespace" split preset converters emit, replacing a hand-rolled ASCII
// classifier with correct behavior on non-ASCII scripts.
func WhitespaceRanges(text string) []Range {
	return segmentRanges(text, func(segment string) bool {
		return strings.TrimSpace(segment) == ""
	})
}

// WhitespacePunctuationRanges splits text on UAX #29 word boundaries,
// isolating runs of whitespace-or-punctuation words from runs of regular
// words. It backs the "WhitespacePunctuation" split preset.
func WhitespacePunctuationRanges(text string) []Range {
	return segmentRanges(text, func(segment string) bool {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" {
			return true
		}
		for _, r := range trimmed {
			if !isPunctRune(r) {
				return false
			}
		}
		return true
	})
}

func isPunctRune(r rune) bool {
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}

// segmentRanges walks the UAX #29 word segmenter and merges consecutive
// segments that share the same isGap classification, returning byte ranges
// equivalent to a Pattern{Isolate} rule over the merged boundaries.
func segmentRanges(text string, isGap func(string) bool) []Range {
	if text == "" {
		return nil
	}
	seg := words.FromString(text)
	var out []Range
	pos := 0
	for seg.Next() {
		token := seg.Value()
		start := pos
		end := pos + len(token)
		pos = end
		gap := isGap(token)
		if len(out) > 0 {
			prevGap := isGap(text[out[len(out)-1].Start:out[len(out)-1].End])
			if prevGap == gap {
				out[len(out)-1].End = end
				continue
			}
		}
		out = append(out, Range{start, end})
	}
	return out
}
