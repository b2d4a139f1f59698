// Package normalize executes the tokenizer's normalizer pipeline: an
// ordered list of text-rewriting steps applied before splitting.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// Kind mirrors kitoken.NormalizationKind without importing the root package,
// to avoid an import cycle; the root package translates its Configuration
// into a Step slice before invoking Pipeline.
type Kind uint8

const (
	KindUnicode Kind = iota
	KindNMT
	KindCaseFold
	KindAppend
	KindPrepend
	KindExtend
	KindStrip
	KindCollapse
	KindReplace
	KindCharsMap
)

// UnicodeScheme selects a standard Unicode normalization form.
type UnicodeScheme uint8

const (
	NFC UnicodeScheme = iota
	NFD
	NFKC
	NFKD
)

// Step is one normalizer pipeline entry, already compiled (regex patterns
// resolved to *regexutil.Regex) so that Pipeline never fails at run time.
type Step struct {
	Kind Kind

	Scheme UnicodeScheme

	Upper bool

	Text string

	Character rune
	Left      uint32
	Right     uint32
	Pad       bool

	// Replace: Literal is true when the pattern has no regex
	// metacharacters and the replacement has no "$", so a plain string
	// replace can skip the regex engine.
	Pattern     *regexutil.Regex
	Literal     bool
	LiteralText string
	Replacement string
}

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// CompileStep resolves a Replace step's pattern ahead of time. Call during
// Definition construction, never per-encode.
func CompileStep(kind Kind, pattern, replacement string) (*regexutil.Regex, bool, string) {
	if kind != KindReplace {
		return nil, false, ""
	}
	if regexutil.IsLiteral(pattern) && !strings.Contains(replacement, "$") {
		return nil, true, pattern
	}
	re := regexutil.MustCompile(pattern)
	return re, false, ""
}

// nmtDrop is the set of control code points dropped outright by NMT
// normalization.
func nmtDrop(r rune) bool {
	switch {
	case r >= 0x1 && r <= 0x8:
		return true
	case r == 0xB:
		return true
	case r >= 0xE && r <= 0x1F:
		return true
	case r == 0x7F, r == 0x8F, r == 0x9F:
		return true
	}
	return false
}

// nmtSpace is the set of code points replaced with a single ASCII space by
// NMT normalization.
func nmtSpace(r rune) bool {
	switch r {
	case 0x0, 0xA, 0xC, 0xD, 0x1680, 0x2028, 0x2029, 0x2581, 0xFEFF, 0xFFFD:
		return true
	}
	return r >= 0x200B && r <= 0x200F
}

func applyNMT(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case nmtDrop(r):
			continue
		case nmtSpace(r):
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func applyUnicode(text string, scheme UnicodeScheme) string {
	switch scheme {
	case NFC:
		return norm.NFC.String(text)
	case NFD:
		return norm.NFD.String(text)
	case NFKC:
		return norm.NFKC.String(text)
	case NFKD:
		return norm.NFKD.String(text)
	}
	return text
}

func applyCaseFold(text string, upper bool) string {
	if upper {
		return upperCaser.String(text)
	}
	return lowerCaser.String(text)
}

func applyExtend(text string, character rune, left, right uint32, pad bool) string {
	runes := []rune(text)
	if pad {
		leading := 0
		for leading < len(runes) && leading < int(left) && runes[leading] == character {
			leading++
		}
		if uint32(leading) <= left {
			left -= uint32(leading)
		} else {
			left = 0
		}
		trailing := 0
		for trailing < len(runes) && trailing < int(right) && runes[len(runes)-1-trailing] == character {
			trailing++
		}
		if uint32(trailing) <= right {
			right -= uint32(trailing)
		} else {
			right = 0
		}
	}
	var out strings.Builder
	out.WriteString(repeatChar(character, int(left)))
	out.WriteString(text)
	out.WriteString(repeatChar(character, int(right)))
	return out.String()
}

func repeatChar(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(r), n)
}

func applyStrip(text string, character rune, left, right uint32) string {
	runes := []rune(text)
	start, end := 0, len(runes)
	for start < end && left > 0 && runes[start] == character {
		start++
		left--
	}
	for end > start && right > 0 && runes[end-1] == character {
		end--
		right--
	}
	return string(runes[start:end])
}

func applyCollapse(text string, character rune) string {
	var b strings.Builder
	b.Grow(len(text))
	seenRun := false
	for _, r := range text {
		if r == character {
			if seenRun {
				continue
			}
			seenRun = true
		} else {
			seenRun = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func applyReplace(text string, step Step) string {
	if step.Literal {
		return strings.ReplaceAll(text, step.LiteralText, step.Replacement)
	}
	return step.Pattern.ReplaceAll(text, step.Replacement)
}

// Apply runs a single Step over text, returning the rewritten text.
func Apply(text string, step Step) string {
	switch step.Kind {
	case KindUnicode:
		return applyUnicode(text, step.Scheme)
	case KindNMT:
		return applyNMT(text)
	case KindCaseFold:
		return applyCaseFold(text, step.Upper)
	case KindAppend:
		return text + step.Text
	case KindPrepend:
		return step.Text + text
	case KindExtend:
		return applyExtend(text, step.Character, step.Left, step.Right, step.Pad)
	case KindStrip:
		return applyStrip(text, step.Character, step.Left, step.Right)
	case KindCollapse:
		return applyCollapse(text, step.Character)
	case KindReplace:
		return applyReplace(text, step)
	case KindCharsMap:
		return text
	}
	return text
}

// Pipeline runs every step in order over text.
func Pipeline(text string, steps []Step) string {
	for _, step := range steps {
		text = Apply(text, step)
	}
	return text
}
