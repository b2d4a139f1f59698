package kitoken

import (
	"errors"

	"k8s.io/klog/v2"

	"github.com/inference-tools/kitoken/internal/bytepair"
	"github.com/inference-tools/kitoken/internal/decode"
	"github.com/inference-tools/kitoken/internal/extract"
	"github.com/inference-tools/kitoken/internal/normalize"
	"github.com/inference-tools/kitoken/internal/process"
	"github.com/inference-tools/kitoken/internal/regexutil"
	"github.com/inference-tools/kitoken/internal/split"
	"github.com/inference-tools/kitoken/internal/unigram"
	"github.com/inference-tools/kitoken/internal/wordpiece"
)

// engine is the common interface the three tokenization engines satisfy, so
// Tokenizer can dispatch on Model.Kind once at construction and call through
// an interface on every Encode.
type engine interface {
	Encode(parts []bpTextPart, result []TokenID) ([]TokenID, error)
}

// bpTextPart is the shared part shape passed to whichever engine is active;
// each internal engine package defines its own identical TextPart type, so
// Tokenizer adapts to whichever one the active engine expects via small
// per-kind wrapper types below.
type bpTextPart struct {
	Text    string
	Special TokenID
}

type bytepairAdapter struct{ e *bytepair.Engine }

func (a bytepairAdapter) Encode(parts []bpTextPart, result []TokenID) ([]TokenID, error) {
	converted := make([]bytepair.TextPart, len(parts))
	for i, p := range parts {
		converted[i] = bytepair.TextPart{Text: p.Text, Special: p.Special}
	}
	return a.e.Encode(converted, result)
}

type unigramAdapter struct{ e *unigram.Engine }

func (a unigramAdapter) Encode(parts []bpTextPart, result []TokenID) ([]TokenID, error) {
	converted := make([]unigram.TextPart, len(parts))
	for i, p := range parts {
		converted[i] = unigram.TextPart{Text: p.Text, Special: p.Special}
	}
	return a.e.Encode(converted, result)
}

type wordpieceAdapter struct{ e *wordpiece.Engine }

func (a wordpieceAdapter) Encode(parts []bpTextPart, result []TokenID) ([]TokenID, error) {
	converted := make([]wordpiece.TextPart, len(parts))
	for i, p := range parts {
		converted[i] = wordpiece.TextPart{Text: p.Text, Special: p.Special}
	}
	return a.e.Encode(converted, result)
}

// Tokenizer is a constructed, immutable encoder/decoder built from a
// Definition, safely shareable across goroutines without external locking
// once New returns.
type Tokenizer struct {
	def *Definition

	extractor *extract.Extractor
	normSteps []normalize.Step
	splitRule []split.Rule
	eng       engine
	procSteps []process.Step
	decSteps  []decode.Step
	decoder   *decode.Decoder

	startID, endID TokenID
	hasStart       bool
	hasEnd         bool
}

// New builds a Tokenizer from a validated Definition, compiling every regex
// and constructing every engine once so Encode/Decode never allocate or fail
// for structural reasons afterward.
func New(def *Definition) (*Tokenizer, error) {
	t := &Tokenizer{def: def}

	var extractSpecials []extract.Special
	for _, s := range def.Specials {
		if s.Extract {
			extractSpecials = append(extractSpecials, extract.Special{ID: s.ID, Bytes: s.Bytes})
		}
	}
	t.extractor = extract.New(extractSpecials)

	normSteps, err := buildNormalizeSteps(def.Config.Normalization)
	if err != nil {
		return nil, err
	}
	t.normSteps = normSteps

	splitRules, err := buildSplitRules(def.Config.Split)
	if err != nil {
		return nil, err
	}
	t.splitRule = splitRules

	unknownID, hasUnk := findUnknown(def.Specials)
	fallback := def.Config.Fallback

	wordEnd, hasWordEnd := def.Config.WordEndSuffix()
	switch def.Model.Kind {
	case ModelBytePair:
		vocab := make([]bytepair.Token, len(def.Model.Vocab))
		for i, v := range def.Model.Vocab {
			vocab[i] = bytepair.Token{ID: v.ID, Bytes: v.Bytes}
		}
		suffix := ""
		if hasWordEnd {
			suffix = wordEnd
		}
		t.eng = bytepairAdapter{bytepair.New(vocab, def.Model.Chars, suffix, unknownID, hasUnk, toBPFallback(fallback))}
	case ModelUnigram:
		vocab := make([]unigram.Token, len(def.Model.Vocab))
		for i, v := range def.Model.Vocab {
			score := float32(0)
			if i < len(def.Model.Scores) {
				score = def.Model.Scores[i]
			}
			vocab[i] = unigram.Token{ID: v.ID, Bytes: v.Bytes, Score: score}
		}
		t.eng = unigramAdapter{unigram.New(vocab, unknownID, hasUnk, toUniFallback(fallback))}
	case ModelWordPiece:
		vocab := make([]wordpiece.Token, len(def.Model.Vocab))
		for i, v := range def.Model.Vocab {
			vocab[i] = wordpiece.Token{ID: v.ID, Bytes: v.Bytes}
		}
		prefix, _ := def.Config.WordContinuationPrefix()
		t.eng = wordpieceAdapter{wordpiece.New(vocab, prefix, int(def.Model.MaxWordChars), unknownID, hasUnk, toWPFallback(fallback))}
	}

	t.procSteps = buildProcessSteps(def.Config.Processing)

	decSteps, err := buildDecodeSteps(def.Config.Decoding)
	if err != nil {
		return nil, err
	}
	t.decSteps = decSteps

	decVocab := make([]decode.Token, len(def.Model.Vocab))
	for i, v := range def.Model.Vocab {
		decVocab[i] = decode.Token{ID: v.ID, Bytes: v.Bytes}
	}
	decSpecials := make([]decode.Special, len(def.Specials))
	for i, s := range def.Specials {
		decSpecials[i] = decode.Special{ID: s.ID, Bytes: s.Bytes, Kind: decode.SpecialKind(s.Kind)}
	}
	t.decoder = decode.New(decVocab, decSpecials)

	for _, tpl := range def.Config.Templates {
		switch tpl.Position {
		case PositionSequenceStart:
			if id, ok := findSpecialByBytes(def.Specials, tpl.Content); ok {
				t.startID, t.hasStart = id, true
			}
		case PositionSequenceEnd:
			if id, ok := findSpecialByBytes(def.Specials, tpl.Content); ok {
				t.endID, t.hasEnd = id, true
			}
		}
	}

	klog.V(2).InfoS("kitoken: tokenizer constructed",
		"modelKind", def.Model.Kind,
		"vocabSize", len(def.Model.Vocab),
		"specials", len(def.Specials),
	)
	return t, nil
}

func findUnknown(specials SpecialVocab) (TokenID, bool) {
	for _, s := range specials {
		if s.Kind == SpecialUnknown {
			return s.ID, true
		}
	}
	return 0, false
}

func findSpecialByBytes(specials SpecialVocab, content string) (TokenID, bool) {
	for _, s := range specials {
		if string(s.Bytes) == content {
			return s.ID, true
		}
	}
	return 0, false
}

func toBPFallback(fb []Fallback) []bytepair.Fallback {
	out := make([]bytepair.Fallback, len(fb))
	for i, f := range fb {
		out[i] = bytepair.Fallback(f)
	}
	return out
}

func toUniFallback(fb []Fallback) []unigram.Fallback {
	out := make([]unigram.Fallback, len(fb))
	for i, f := range fb {
		out[i] = unigram.Fallback(f)
	}
	return out
}

func toWPFallback(fb []Fallback) []wordpiece.Fallback {
	out := make([]wordpiece.Fallback, len(fb))
	for i, f := range fb {
		out[i] = wordpiece.Fallback(f)
	}
	return out
}

func buildNormalizeSteps(steps []Normalization) ([]normalize.Step, error) {
	out := make([]normalize.Step, len(steps))
	for i, n := range steps {
		pattern, literal, literalText := normalize.CompileStep(normalize.Kind(n.Kind), n.Pattern, n.Replacement)
		out[i] = normalize.Step{
			Kind:        normalize.Kind(n.Kind),
			Scheme:      normalize.UnicodeScheme(n.Scheme),
			Upper:       n.Upper,
			Text:        n.Text,
			Character:   n.Character,
			Left:        n.Left,
			Right:       n.Right,
			Pad:         n.Pad,
			Pattern:     pattern,
			Literal:     literal,
			LiteralText: literalText,
			Replacement: n.Replacement,
		}
	}
	return out, nil
}

func buildSplitRules(rules []Split) ([]split.Rule, error) {
	out := make([]split.Rule, len(rules))
	for i, s := range rules {
		rule := split.Rule{Kind: split.Kind(s.Kind), Character: s.Character, Behavior: split.Behavior(s.Behavior)}
		if s.Kind == SplitPattern {
			re, err := regexutil.Compile(s.Pattern)
			if err != nil {
				return nil, err
			}
			rule.Regex = re
		}
		out[i] = rule
	}
	return out, nil
}

func buildProcessSteps(steps []Processing) []process.Step {
	out := make([]process.Step, len(steps))
	for i, p := range steps {
		out[i] = process.Step{
			Kind:      process.Kind(p.Kind),
			ID:        p.ID,
			StripL:    int(p.Left),
			StripR:    int(p.Right),
			Length:    int(p.Length),
			Stride:    int(p.Stride),
			Direction: process.Direction(p.Direction),
		}
	}
	return out
}

func buildDecodeSteps(steps []Decoding) ([]decode.Step, error) {
	out := make([]decode.Step, len(steps))
	for i, d := range steps {
		step, err := decode.CompileStep(decode.Kind(d.Kind), d.Pattern, d.Replacement, d.Character, d.Left, d.Right, d.Pad)
		if err != nil {
			return nil, err
		}
		out[i] = step
	}
	return out, nil
}

// Encode maps text to a token-id sequence. When encodeSpecials is
// true, specials flagged Extract=true are recognized as literal tokens in
// text before normalization; when false, the entire input is treated as
// plain text.
func (t *Tokenizer) Encode(text string, encodeSpecials bool) ([]TokenID, error) {
	var parts []extract.Part
	if encodeSpecials {
		parts = t.extractor.Split(text)
	} else {
		parts = []extract.Part{{Text: text, Special: extract.TokenInvalid}}
	}

	var engineParts []bpTextPart
	for _, p := range parts {
		if p.Special != extract.TokenInvalid {
			engineParts = append(engineParts, bpTextPart{Special: p.Special})
			continue
		}
		normalized := normalize.Pipeline(p.Text, t.normSteps)
		ranges := split.Pipeline(normalized, t.splitRule)
		for _, r := range ranges {
			engineParts = append(engineParts, bpTextPart{Text: normalized[r.Start:r.End], Special: TokenInvalid})
		}
	}

	ids, err := t.eng.Encode(engineParts, nil)
	if err != nil {
		return nil, &EncodeError{Piece: invalidPieceBytes(err)}
	}
	ids = process.Pipeline(ids, t.procSteps)

	if t.hasStart {
		ids = append([]TokenID{t.startID}, ids...)
	}
	if t.hasEnd {
		ids = append(ids, t.endID)
	}
	return ids, nil
}

// Decode maps a token-id sequence back to bytes, running the decoding
// pipeline (Extend, Strip, Collapse, Replace) after the id-to-bytes lookup.
func (t *Tokenizer) Decode(ids []TokenID, decodeSpecials bool) ([]byte, error) {
	raw, err := t.decoder.Decode(ids, decodeSpecials)
	if err != nil {
		var invalid *decode.InvalidTokenError
		if errors.As(err, &invalid) {
			return nil, &DecodeError{Token: invalid.Token}
		}
		return nil, err
	}
	return decode.Pipeline(raw, t.decSteps), nil
}

// invalidPieceBytes extracts the offending piece from whichever engine
// package's InvalidPieceError was returned, so Encode can surface a single
// root-level EncodeError regardless of which engine produced it.
func invalidPieceBytes(err error) []byte {
	switch e := err.(type) {
	case *bytepair.InvalidPieceError:
		return e.Piece
	case *unigram.InvalidPieceError:
		return e.Piece
	case *wordpiece.InvalidPieceError:
		return e.Piece
	}
	return nil
}
