// Package decode implements token decoding: token-id to bytes
// lookup over vocab ∪ specials, with Control-kind specials suppressed
// unless requested, followed by a byte-stream decoding pipeline mirroring
// the normalizer's Extend/Strip/Collapse/Replace steps.
package decode

import (
	"bytes"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// SpecialKind mirrors kitoken.SpecialTokenKind without importing the root
// package.
type SpecialKind uint8

const (
	KindUnknown SpecialKind = iota
	KindControl
	KindPriority
)

// Token is the minimal vocab entry shape the decoder needs.
type Token struct {
	ID    uint32
	Bytes []byte
}

// Special is the minimal special-token shape the decoder needs.
type Special struct {
	ID    uint32
	Bytes []byte
	Kind  SpecialKind
}

// InvalidTokenError reports a token id absent from both vocab and specials.
type InvalidTokenError struct {
	Token uint32
}

func (e *InvalidTokenError) Error() string { return "decode: invalid token" }

// Decoder holds the id-to-bytes lookup tables built once at construction.
type Decoder struct {
	vocab    map[uint32][]byte
	specials map[uint32]Special
}

// New builds a Decoder from vocab and specials.
func New(vocab []Token, specials []Special) *Decoder {
	v := make(map[uint32][]byte, len(vocab))
	for _, t := range vocab {
		v[t.ID] = t.Bytes
	}
	s := make(map[uint32]Special, len(specials))
	for _, sp := range specials {
		s[sp.ID] = sp
	}
	return &Decoder{vocab: v, specials: s}
}

// Decode resolves ids to their concatenated byte representation. Control
// specials are omitted unless decodeSpecials is true.
func (d *Decoder) Decode(ids []uint32, decodeSpecials bool) ([]byte, error) {
	var out []byte
	for _, id := range ids {
		if b, ok := d.vocab[id]; ok {
			out = append(out, b...)
			continue
		}
		if sp, ok := d.specials[id]; ok {
			if sp.Kind == KindControl && !decodeSpecials {
				continue
			}
			out = append(out, sp.Bytes...)
			continue
		}
		return out, &InvalidTokenError{Token: id}
	}
	return out, nil
}

// --- decoding pipeline (byte-stream analogue of internal/normalize) ---

// Kind tags the variant carried by a Step.
type Kind uint8

const (
	Extend Kind = iota
	Strip
	Collapse
	Replace
)

// Step is a single decoding-pipeline entry, pre-compiled where needed so
// Apply never fails at run time.
type Step struct {
	Kind Kind

	Character rune
	Left      uint32
	Right     uint32
	Pad       bool // Extend only

	Pattern     *regexutil.Regex // Replace
	Replacement string           // Replace
}

// CompileStep builds a Step from a Replace pattern string; other kinds need
// no compilation and are constructed directly.
func CompileStep(kind Kind, pattern, replacement string, character rune, left, right uint32, pad bool) (Step, error) {
	step := Step{Kind: kind, Character: character, Left: left, Right: right, Pad: pad, Replacement: replacement}
	if kind == Replace {
		re, err := regexutil.Compile(pattern)
		if err != nil {
			return Step{}, err
		}
		step.Pattern = re
	}
	return step, nil
}

// Apply runs a single Step over buf.
func Apply(buf []byte, step Step) []byte {
	switch step.Kind {
	case Extend:
		return applyExtend(buf, step.Character, step.Left, step.Right, step.Pad)
	case Strip:
		return applyStrip(buf, step.Character, step.Left, step.Right)
	case Collapse:
		return applyCollapse(buf, step.Character)
	case Replace:
		return applyReplace(buf, step.Pattern, step.Replacement)
	}
	return buf
}

// Pipeline runs every step in sequence.
func Pipeline(buf []byte, steps []Step) []byte {
	for _, step := range steps {
		buf = Apply(buf, step)
	}
	return buf
}

func repeatByte(c rune, n uint32) []byte {
	if n == 0 {
		return nil
	}
	enc := []byte(string(c))
	out := make([]byte, 0, len(enc)*int(n))
	for i := uint32(0); i < n; i++ {
		out = append(out, enc...)
	}
	return out
}

func applyExtend(buf []byte, c rune, left, right uint32, pad bool) []byte {
	enc := []byte(string(c))
	if pad {
		// Copies already present count toward the target, up to left/right.
		rest := buf
		for left > 0 && bytes.HasPrefix(rest, enc) {
			rest = rest[len(enc):]
			left--
		}
		rest = buf
		for right > 0 && bytes.HasSuffix(rest, enc) {
			rest = rest[:len(rest)-len(enc)]
			right--
		}
	}
	var out []byte
	out = append(out, repeatByte(c, left)...)
	out = append(out, buf...)
	out = append(out, repeatByte(c, right)...)
	return out
}

func applyStrip(buf []byte, c rune, left, right uint32) []byte {
	enc := []byte(string(c))
	start := 0
	for left > 0 && bytes.HasPrefix(buf[start:], enc) {
		start += len(enc)
		left--
	}
	end := len(buf)
	for right > 0 && end-start >= len(enc) && bytes.HasSuffix(buf[start:end], enc) {
		end -= len(enc)
		right--
	}
	return append([]byte{}, buf[start:end]...)
}

// applyCollapse collapses consecutive occurrences of c's byte encoding to a
// single occurrence, scanning byte-wise (not rune-wise) so arbitrary,
// possibly non-UTF8, decoded byte streams are never corrupted.
func applyCollapse(buf []byte, c rune) []byte {
	enc := []byte(string(c))
	if len(enc) == 0 {
		return buf
	}
	out := make([]byte, 0, len(buf))
	seenRun := false
	for i := 0; i < len(buf); {
		if bytes.HasPrefix(buf[i:], enc) {
			if seenRun {
				i += len(enc)
				continue
			}
			seenRun = true
			out = append(out, enc...)
			i += len(enc)
			continue
		}
		seenRun = false
		out = append(out, buf[i])
		i++
	}
	return out
}

func applyReplace(buf []byte, pattern *regexutil.Regex, replacement string) []byte {
	return []byte(pattern.ReplaceAll(string(buf), replacement))
}
