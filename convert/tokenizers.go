package convert

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/inference-tools/kitoken"
)

// HFModelKind tags which of the three tokenizer.json model types a
// HFTokenizer describes, mirroring the `type` discriminant in
// tokenizer.json's `model` object.
type HFModelKind uint8

const (
	HFModelBPE HFModelKind = iota
	HFModelWordPiece
	HFModelUnigram
)

// HFModel is the already-parsed `model` object of a tokenizer.json document.
// Only the fields the three model kinds need are kept; which fields are
// meaningful depends on Kind.
type HFModel struct {
	Kind HFModelKind

	Vocab  map[string]uint32 // HFModelBPE, HFModelWordPiece
	Merges []string          // HFModelBPE: "left right" pairs, in merge-priority order

	UnigramVocab []HFUnigramPiece // HFModelUnigram

	UnkToken                string // all kinds
	ContinuingSubwordPrefix string // HFModelWordPiece, e.g. "##"
	MaxInputCharsPerWord    uint32 // HFModelWordPiece
	ByteFallback            bool   // HFModelBPE, HFModelUnigram
}

// HFUnigramPiece is one (piece, log-probability) entry of a tokenizer.json
// Unigram model's vocab array.
type HFUnigramPiece struct {
	Piece string
	Score float32
}

// HFAddedToken is one entry of tokenizer.json's `added_tokens` array.
type HFAddedToken struct {
	ID      kitoken.TokenID
	Content string
	Special bool
}

// HFNormalizerKind tags the recognized tokenizer.json normalizer types.
type HFNormalizerKind uint8

const (
	HFNormNFC HFNormalizerKind = iota
	HFNormNFD
	HFNormNFKC
	HFNormNFKD
	HFNormLowercase
	HFNormNmt
	HFNormPrepend
	HFNormReplace
	HFNormBert
	HFNormSequence
)

// HFNormalizer is one (possibly nested, via Sequence) tokenizer.json
// normalizer entry.
type HFNormalizer struct {
	Kind      HFNormalizerKind
	Lowercase bool   // HFNormBert
	Prepend   string // HFNormPrepend
	Pattern   string // HFNormReplace
	Content   string // HFNormReplace
	Sequence  []HFNormalizer
}

// HFPreTokenizerKind tags the recognized tokenizer.json pre-tokenizer types.
type HFPreTokenizerKind uint8

const (
	HFPreByteLevel HFPreTokenizerKind = iota
	HFPreWhitespace
	HFPreWhitespaceSplit
	HFPreBertPreTokenizer
	HFPreMetaspace
	HFPreSequence
)

// HFPreTokenizer is one (possibly nested) tokenizer.json pre-tokenizer entry.
type HFPreTokenizer struct {
	Kind           HFPreTokenizerKind
	AddPrefixSpace bool // HFPreByteLevel, HFPreMetaspace
	Sequence       []HFPreTokenizer
}

// HFTemplateItem is one entry of a `TemplateProcessing` post-processor's
// `single` sequence: either a literal special token reference or the
// input sequence placeholder.
type HFTemplateItem struct {
	SpecialToken string // token content, empty if this item is the Sequence placeholder
}

// HFTokenizer is the already-parsed subset of a tokenizer.json document this
// converter needs. Parsing the JSON itself is left to the caller.
type HFTokenizer struct {
	Model          HFModel
	Normalizer     *HFNormalizer
	PreTokenizer   *HFPreTokenizer
	AddedTokens    []HFAddedToken
	TemplateSingle []HFTemplateItem // post_processor.single, if a TemplateProcessing
}

// ConvertTokenizers builds a Definition from an already-parsed HuggingFace
// tokenizer.json document. It supports the three model kinds
// tokenizer.json carries (BPE, WordPiece, Unigram); merges for BPE are taken
// verbatim from the source merges list, and a ByteLevel pre-tokenizer
// implies replacing the GPT-2 byte-to-unicode mapping in the vocab bytes
// (so the BytePair engine operates on raw bytes directly, with no runtime
// byte-level remapping step needed).
func ConvertTokenizers(tj *HFTokenizer) (*kitoken.Definition, error) {
	config := kitoken.Configuration{
		Fallback: []kitoken.Fallback{kitoken.FallbackUnknown, kitoken.FallbackSkip},
	}

	if tj.Normalizer != nil {
		steps, err := buildHFNormalization(tj.Normalizer)
		if err != nil {
			return nil, err
		}
		config.Normalization = steps
	}

	byteLevel := false
	if tj.PreTokenizer != nil {
		steps, hasByteLevel, err := buildHFSplit(tj.PreTokenizer)
		if err != nil {
			return nil, err
		}
		config.Split = steps
		byteLevel = hasByteLevel
	}

	specials := map[string]kitoken.SpecialToken{}
	for _, at := range tj.AddedTokens {
		specials[at.Content] = kitoken.SpecialToken{
			ID:      at.ID,
			Bytes:   []byte(at.Content),
			Kind:    kitoken.SpecialControl,
			Extract: at.Special,
		}
	}

	var model kitoken.Model
	switch tj.Model.Kind {
	case HFModelBPE:
		model = buildHFBPEModel(tj.Model, byteLevel)
		if tj.Model.ByteFallback {
			config.Fallback = append([]kitoken.Fallback{kitoken.FallbackBytes}, config.Fallback...)
		}
	case HFModelWordPiece:
		model = buildHFWordPieceModel(tj.Model)
		if prefix := tj.Model.ContinuingSubwordPrefix; prefix != "" {
			config.Templates = append(config.Templates, kitoken.Template{Content: prefix, Position: kitoken.PositionWordContinuation})
		}
	case HFModelUnigram:
		model = buildHFUnigramModel(tj.Model)
		if tj.Model.ByteFallback {
			config.Fallback = append([]kitoken.Fallback{kitoken.FallbackBytes}, config.Fallback...)
		}
	default:
		return nil, errors.Wrap(ErrInvalidData, "convert: unrecognized tokenizer.json model kind")
	}

	if unk := tj.Model.UnkToken; unk != "" {
		if id, ok := findVocabID(model, unk); ok {
			specials[unk] = kitoken.SpecialToken{ID: id, Bytes: []byte(unk), Kind: kitoken.SpecialUnknown}
		}
	}

	for i, item := range tj.TemplateSingle {
		if item.SpecialToken == "" {
			continue
		}
		pos := kitoken.PositionSequenceContinuation
		if i == 0 {
			pos = kitoken.PositionSequenceStart
		} else if i == len(tj.TemplateSingle)-1 {
			pos = kitoken.PositionSequenceEnd
		}
		if pos != kitoken.PositionSequenceContinuation {
			config.Templates = append(config.Templates, kitoken.Template{Content: item.SpecialToken, Position: pos})
		}
	}

	specialVocab := make(kitoken.SpecialVocab, 0, len(specials))
	for _, s := range specials {
		specialVocab = append(specialVocab, s)
	}
	kitoken.SortSpecialVocab(specialVocab)

	meta := kitoken.Metadata{Source: "tokenizers"}
	def, err := kitoken.NewDefinition(meta, model, specialVocab, config)
	if err != nil {
		return nil, err
	}
	logConverted("tokenizers", len(model.Vocab), len(specialVocab))
	return def, nil
}

func findVocabID(model kitoken.Model, text string) (kitoken.TokenID, bool) {
	target := []byte(text)
	for _, t := range model.Vocab {
		if string(t.Bytes) == string(target) {
			return t.ID, true
		}
	}
	return 0, false
}

// buildHFNormalization flattens a (possibly Sequence-nested) tokenizer.json
// normalizer into kitoken's ordered Normalization steps.
func buildHFNormalization(n *HFNormalizer) ([]kitoken.Normalization, error) {
	switch n.Kind {
	case HFNormSequence:
		var out []kitoken.Normalization
		for i := range n.Sequence {
			steps, err := buildHFNormalization(&n.Sequence[i])
			if err != nil {
				return nil, err
			}
			out = append(out, steps...)
		}
		return out, nil
	case HFNormNFC:
		return []kitoken.Normalization{{Kind: kitoken.NormUnicode, Scheme: kitoken.NFC}}, nil
	case HFNormNFD:
		return []kitoken.Normalization{{Kind: kitoken.NormUnicode, Scheme: kitoken.NFD}}, nil
	case HFNormNFKC:
		return []kitoken.Normalization{{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKC}}, nil
	case HFNormNFKD:
		return []kitoken.Normalization{{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKD}}, nil
	case HFNormLowercase:
		return []kitoken.Normalization{{Kind: kitoken.NormCaseFold}}, nil
	case HFNormBert:
		if n.Lowercase {
			return []kitoken.Normalization{{Kind: kitoken.NormCaseFold}}, nil
		}
		return nil, nil
	case HFNormNmt:
		return []kitoken.Normalization{{Kind: kitoken.NormNMT}}, nil
	case HFNormPrepend:
		return []kitoken.Normalization{{Kind: kitoken.NormPrepend, Text: n.Prepend}}, nil
	case HFNormReplace:
		return []kitoken.Normalization{{Kind: kitoken.NormReplace, Pattern: n.Pattern, Replacement: n.Content}}, nil
	}
	return nil, errors.Wrap(ErrInvalidData, "convert: unsupported tokenizer.json normalizer")
}

// buildHFSplit flattens a (possibly Sequence-nested) tokenizer.json
// pre-tokenizer into kitoken's ordered Split rules, reporting whether a
// ByteLevel stage was present (which governs vocab byte remapping).
func buildHFSplit(p *HFPreTokenizer) ([]kitoken.Split, bool, error) {
	switch p.Kind {
	case HFPreSequence:
		var out []kitoken.Split
		byteLevel := false
		for i := range p.Sequence {
			steps, bl, err := buildHFSplit(&p.Sequence[i])
			if err != nil {
				return nil, false, err
			}
			out = append(out, steps...)
			byteLevel = byteLevel || bl
		}
		return out, byteLevel, nil
	case HFPreByteLevel:
		if err := compileSplit(p50kSplitPattern); err != nil {
			return nil, false, err
		}
		return []kitoken.Split{{Kind: kitoken.SplitPattern, Pattern: p50kSplitPattern, Behavior: kitoken.SplitIsolate}}, true, nil
	case HFPreWhitespace:
		return []kitoken.Split{{Kind: kitoken.SplitWhitespace}}, false, nil
	case HFPreWhitespaceSplit:
		return []kitoken.Split{{Kind: kitoken.SplitPattern, Pattern: `\s+`, Behavior: kitoken.SplitRemove}}, false, nil
	case HFPreBertPreTokenizer:
		return []kitoken.Split{{Kind: kitoken.SplitWhitespacePunctuation}}, false, nil
	case HFPreMetaspace:
		return []kitoken.Split{{Kind: kitoken.SplitCharacter, Character: '▁', Behavior: kitoken.SplitMergeRight}}, false, nil
	}
	return nil, false, errors.Wrap(ErrInvalidData, "convert: unsupported tokenizer.json pre-tokenizer")
}

// byteToUnicode/unicodeToByte implement the GPT-2 byte-to-printable-unicode
// mapping tokenizer.json's ByteLevel pre-tokenizer applies to raw bytes
// before the vocab is built, so tokenizer.json vocab keys are this mapping's
// codepoints rather than raw bytes. ConvertTokenizers inverts it once, at
// construction time, so the BytePair engine can operate on real bytes.
var byteToUnicode, unicodeToByte = buildByteLevelMapping()

func buildByteLevelMapping() (map[byte]rune, map[rune]byte) {
	b2u := make(map[byte]rune, 256)
	u2b := make(map[rune]byte, 256)
	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff) {
			b2u[byte(b)] = rune(b)
			u2b[rune(b)] = byte(b)
		} else {
			b2u[byte(b)] = rune(256 + n)
			u2b[rune(256+n)] = byte(b)
			n++
		}
	}
	return b2u, u2b
}

// byteLevelDecodeToken maps a tokenizer.json ByteLevel vocab key back to its
// raw byte sequence.
func byteLevelDecodeToken(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := unicodeToByte[r]; ok {
			out = append(out, b)
		} else {
			out = append(out, []byte(string(r))...)
		}
	}
	return out
}

func buildHFBPEModel(m HFModel, byteLevel bool) kitoken.Model {
	tokenBytes := func(s string) []byte {
		if byteLevel {
			return byteLevelDecodeToken(s)
		}
		return []byte(s)
	}

	rankByID := make(map[kitoken.TokenID]int, len(m.Merges))
	for rank, merge := range m.Merges {
		left, right, ok := strings.Cut(merge, " ")
		if !ok {
			continue
		}
		if id, ok := m.Vocab[left+right]; ok {
			if _, already := rankByID[id]; !already {
				rankByID[id] = rank
			}
		}
	}

	vocab := make(kitoken.Vocab, 0, len(m.Vocab))
	for text, id := range m.Vocab {
		vocab = append(vocab, kitoken.Token{ID: id, Bytes: tokenBytes(text)})
	}
	sort.Slice(vocab, func(i, j int) bool {
		ri, iok := rankByID[vocab[i].ID]
		rj, jok := rankByID[vocab[j].ID]
		switch {
		case iok && jok:
			if ri != rj {
				return ri < rj
			}
			return vocab[i].ID < vocab[j].ID
		case iok:
			return true
		case jok:
			return false
		default:
			return vocab[i].ID < vocab[j].ID
		}
	})
	return kitoken.Model{Kind: kitoken.ModelBytePair, Vocab: vocab}
}

func buildHFWordPieceModel(m HFModel) kitoken.Model {
	vocab := make(kitoken.Vocab, 0, len(m.Vocab))
	for text, id := range m.Vocab {
		vocab = append(vocab, kitoken.Token{ID: id, Bytes: []byte(text)})
	}
	kitoken.SortVocabByID(vocab)
	maxChars := m.MaxInputCharsPerWord
	return kitoken.Model{Kind: kitoken.ModelWordPiece, Vocab: vocab, MaxWordChars: maxChars}
}

func buildHFUnigramModel(m HFModel) kitoken.Model {
	vocab := make(kitoken.Vocab, len(m.UnigramVocab))
	scores := make(kitoken.Scores, len(m.UnigramVocab))
	for i, p := range m.UnigramVocab {
		vocab[i] = kitoken.Token{ID: kitoken.TokenID(i), Bytes: []byte(p.Piece)}
		scores[i] = p.Score
	}
	idx := make([]int, len(vocab))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] < scores[idx[b]]
		}
		return vocab[idx[a]].ID < vocab[idx[b]].ID
	})
	outVocab := make(kitoken.Vocab, len(vocab))
	outScores := make(kitoken.Scores, len(scores))
	for i, o := range idx {
		outVocab[i] = vocab[o]
		outScores[i] = scores[o]
	}
	return kitoken.Model{Kind: kitoken.ModelUnigram, Vocab: outVocab, Scores: outScores}
}

func init() {
	klog.V(4).InfoS("kitoken/convert: GPT-2 byte-level mapping built", "entries", len(byteToUnicode))
}
