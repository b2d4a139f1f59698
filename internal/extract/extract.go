// Package extract implements the special-token extractor: a
// pre-normalization scan that isolates special tokens flagged Extract=true
// from the input text using a single longest-match alternation regex.
package extract

import (
	"sort"
	"strings"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// TokenInvalid marks a TextPart that carries no special token.
const TokenInvalid uint32 = 0xFFFFFFFF

// Special is the minimal shape the extractor needs from a special token.
type Special struct {
	ID    uint32
	Bytes []byte
}

// Part is a contiguous span of the input text: either ordinary text destined
// for normalization and splitting, or a special token's literal bytes.
type Part struct {
	Text    string
	Special uint32
}

// Extractor is built once from the set of extractable specials and reused
// across calls.
type Extractor struct {
	regex *regexutil.Regex
	byLit map[string]uint32
}

// New builds an Extractor from specials flagged Extract=true. Returns nil if
// there are none, in which case callers should skip extraction entirely.
func New(specials []Special) *Extractor {
	if len(specials) == 0 {
		return nil
	}
	ordered := make([]Special, len(specials))
	copy(ordered, specials)
	sort.Slice(ordered, func(i, j int) bool {
		return len(ordered[i].Bytes) > len(ordered[j].Bytes)
	})
	parts := make([]string, len(ordered))
	byLit := make(map[string]uint32, len(ordered))
	for i, s := range ordered {
		lit := string(s.Bytes)
		parts[i] = regexutil.QuoteMeta(lit)
		byLit[lit] = s.ID
	}
	re := regexutil.MustCompile(strings.Join(parts, "|"))
	return &Extractor{regex: re, byLit: byLit}
}

// Split scans text for extractable specials, returning the ordered sequence
// of TextParts: non-special spans carry Special == TokenInvalid.
func (e *Extractor) Split(text string) []Part {
	if e == nil || text == "" {
		if text == "" {
			return nil
		}
		return []Part{{Text: text, Special: TokenInvalid}}
	}
	matches := e.regex.FindAllIndex(text)
	if len(matches) == 0 {
		return []Part{{Text: text, Special: TokenInvalid}}
	}
	var out []Part
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, Part{Text: text[last:m[0]], Special: TokenInvalid})
		}
		lit := text[m[0]:m[1]]
		out = append(out, Part{Text: lit, Special: e.byLit[lit]})
		last = m[1]
	}
	if last < len(text) {
		out = append(out, Part{Text: text[last:], Special: TokenInvalid})
	}
	return out
}
