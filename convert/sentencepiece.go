package convert

import (
	"sort"

	"github.com/inference-tools/kitoken"
)

// SentencePieceType classifies one parsed sentencepiece vocabulary entry.
type SentencePieceType uint8

const (
	PieceNormal SentencePieceType = iota
	PieceUnknown
	PieceControl
	PieceUserDefined
	PieceByte
	PieceUnused
)

// SentencePiece is one already-parsed sentencepiece vocabulary entry (the
// `ModelProto.SentencePiece` message). Byte-type pieces carry their decoded
// single byte value in Bytes (the `<0xAA>` surface form is resolved by the
// caller, since decoding the sentencepiece protobuf itself is left to the
// caller).
type SentencePiece struct {
	Bytes []byte
	Score float32
	Type  SentencePieceType
}

// SentencePieceModelType selects which of the two sentencepiece model kinds
// this library supports converting, mirroring `ModelType` in the upstream
// trainer spec.
type SentencePieceModelType uint8

const (
	SentencePieceUnigram SentencePieceModelType = iota
	SentencePieceBPE
)

// SentencePieceTrainer carries the subset of `TrainerSpec` fields this
// converter needs, all optional (a zero value means "trainer spec absent").
type SentencePieceTrainer struct {
	Present                 bool
	ModelType               SentencePieceModelType
	TreatWhitespaceAsSuffix bool
	ByteFallback            bool

	UnkID, BosID, EosID, PadID             kitoken.TokenID
	UnkPiece, BosPiece, EosPiece, PadPiece string
}

// SentencePieceNormalizer is the subset of `NormalizerSpec` this converter
// recognizes, matching the named presets sentencepiece ships: "identity",
// "nfkc", "nfkc_cf", "nmt_nfkc", "nmt_nfkc_cf". "user_defined" (a
// precompiled charsmap) is rejected, since a silently ignored charsmap would
// normalize input differently than the source model.
type SentencePieceNormalizer struct {
	Present                bool
	Name                   string
	RemoveExtraWhitespaces bool
	AddDummyPrefix         bool
}

// ConvertSentencePiece builds a Definition from an already-parsed
// sentencepiece model: its piece table, trainer spec and normalizer spec.
// This is an independent re-implementation of the conversion logic, not a
// wrapper around a sentencepiece runtime library; the converted model runs
// on this library's own BytePair/Unigram engines.
func ConvertSentencePiece(pieces []SentencePiece, trainer SentencePieceTrainer, normalizer SentencePieceNormalizer) (*kitoken.Definition, error) {
	if len(pieces) == 0 {
		return nil, ErrInvalidData
	}

	config := kitoken.Configuration{
		Fallback: []kitoken.Fallback{kitoken.FallbackUnknown, kitoken.FallbackSkip},
	}

	specials := map[string]kitoken.SpecialToken{}
	var unkID kitoken.TokenID
	hasUnk := false

	if trainer.Present {
		if trainer.ByteFallback {
			config.Fallback = append([]kitoken.Fallback{kitoken.FallbackBytes}, config.Fallback...)
		}
		if trainer.UnkPiece != "" {
			addTrainerSpecial(specials, trainer.UnkPiece, trainer.UnkID, kitoken.SpecialUnknown, "unk")
			unkID, hasUnk = trainer.UnkID, true
		}
		if trainer.BosPiece != "" {
			addTrainerSpecial(specials, trainer.BosPiece, trainer.BosID, kitoken.SpecialControl, "bos")
			config.Templates = append(config.Templates, kitoken.Template{Content: trainer.BosPiece, Position: kitoken.PositionSequenceStart})
		}
		if trainer.EosPiece != "" {
			addTrainerSpecial(specials, trainer.EosPiece, trainer.EosID, kitoken.SpecialControl, "eos")
			config.Templates = append(config.Templates, kitoken.Template{Content: trainer.EosPiece, Position: kitoken.PositionSequenceEnd})
		}
		addTrainerSpecial(specials, trainer.PadPiece, trainer.PadID, kitoken.SpecialControl, "pad")
	}

	vocab := map[string]parsedPiece{}

	for index, piece := range pieces {
		id := kitoken.TokenID(index)
		switch piece.Type {
		case PieceUnused:
			continue
		case PieceUnknown:
			if !hasUnk {
				specials[string(piece.Bytes)] = kitoken.SpecialToken{
					ID: id, Bytes: piece.Bytes, Kind: kitoken.SpecialUnknown, Ident: "unk", Score: float32(index),
				}
				unkID, hasUnk = id, true
			}
			continue
		case PieceUserDefined, PieceControl:
			kind := kitoken.SpecialPriority
			if piece.Type == PieceControl {
				kind = kitoken.SpecialControl
			}
			specials[string(piece.Bytes)] = kitoken.SpecialToken{
				ID: id, Bytes: piece.Bytes, Kind: kind, Score: float32(index),
			}
			continue
		}
		if _, ok := vocab[string(piece.Bytes)]; ok && piece.Type == PieceByte {
			// A non-byte piece with the same surface form was already
			// recorded; keep it over a later byte-type duplicate, matching
			// upstream sentencepiece's precedence.
			continue
		}
		vocab[string(piece.Bytes)] = parsedPiece{id: id, score: piece.Score}
	}

	// Every special's score is rescaled with the upstream
	// `1.0 / (score + 1.0)` formula into (0, 1]: trainer-declared specials
	// (score 0) get 1, and piece-table specials (score = piece index) get
	// smaller values the later they appear in the table.
	for k, s := range specials {
		s.Score = 1.0 / (s.Score + 1.0)
		specials[k] = s
	}

	if normalizer.Present {
		switch normalizer.Name {
		case "nmt_nfkc":
			config.Normalization = append(config.Normalization,
				kitoken.Normalization{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKC},
				kitoken.Normalization{Kind: kitoken.NormNMT})
		case "nfkc":
			config.Normalization = append(config.Normalization, kitoken.Normalization{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKC})
		case "nmt_nfkc_cf":
			config.Normalization = append(config.Normalization,
				kitoken.Normalization{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKC},
				kitoken.Normalization{Kind: kitoken.NormNMT},
				kitoken.Normalization{Kind: kitoken.NormCaseFold})
		case "nfkc_cf":
			config.Normalization = append(config.Normalization,
				kitoken.Normalization{Kind: kitoken.NormUnicode, Scheme: kitoken.NFKC},
				kitoken.Normalization{Kind: kitoken.NormCaseFold})
		case "identity":
		case "user_defined":
			// Precompiled charsmaps are rejected rather than silently
			// ignored.
			return nil, kitoken.ErrInvalidConfig
		default:
			return nil, kitoken.ErrInvalidConfig
		}
	}
	removeExtraWhitespaces, addDummyPrefix := true, true
	if normalizer.Present {
		removeExtraWhitespaces = normalizer.RemoveExtraWhitespaces
		addDummyPrefix = normalizer.AddDummyPrefix
	}

	whitespaceBehavior := kitoken.SplitMergeRight
	if trainer.TreatWhitespaceAsSuffix {
		whitespaceBehavior = kitoken.SplitMergeLeft
	}

	if removeExtraWhitespaces {
		config.Normalization = append(config.Normalization,
			kitoken.Normalization{Kind: kitoken.NormStrip, Character: ' ', Left: ^uint32(0), Right: ^uint32(0)},
			kitoken.Normalization{Kind: kitoken.NormCollapse, Character: ' '})
		if hasUnk {
			config.Processing = append(config.Processing, kitoken.Processing{Kind: kitoken.ProcCollapse, ID: unkID})
		}
		config.Split = append(config.Split, kitoken.Split{Kind: kitoken.SplitCharacter, Character: '▁', Behavior: whitespaceBehavior})
	} else {
		config.Split = append(config.Split, kitoken.Split{Kind: kitoken.SplitPattern, Pattern: "▁+", Behavior: whitespaceBehavior})
	}

	config.Normalization = append(config.Normalization, kitoken.Normalization{Kind: kitoken.NormReplace, Pattern: " ", Replacement: "▁"})
	if addDummyPrefix {
		left, right := uint32(1), uint32(0)
		if trainer.TreatWhitespaceAsSuffix {
			left, right = 0, 1
		}
		config.Normalization = append(config.Normalization, kitoken.Normalization{Kind: kitoken.NormExtend, Character: '▁', Left: left, Right: right})
		config.Decoding = append(config.Decoding, kitoken.Decoding{Kind: kitoken.DecStrip, Character: '▁', Left: left, Right: right})
	}
	config.Decoding = append(config.Decoding, kitoken.Decoding{Kind: kitoken.DecReplace, Pattern: "▁", Replacement: " "})

	specialVocab := make(kitoken.SpecialVocab, 0, len(specials))
	for _, s := range specials {
		specialVocab = append(specialVocab, s)
	}
	kitoken.SortSpecialVocab(specialVocab)

	var model kitoken.Model
	if trainer.Present && trainer.ModelType == SentencePieceBPE {
		model = buildSentencePieceBPEModel(vocab)
	} else {
		model = buildSentencePieceUnigramModel(vocab)
	}

	meta := kitoken.Metadata{Source: "sentencepiece"}
	def, err := kitoken.NewDefinition(meta, model, specialVocab, config)
	if err != nil {
		return nil, err
	}
	logConverted("sentencepiece", len(model.Vocab), len(specialVocab))
	return def, nil
}

func addTrainerSpecial(specials map[string]kitoken.SpecialToken, piece string, id kitoken.TokenID, kind kitoken.SpecialTokenKind, ident string) {
	if piece == "" {
		return
	}
	specials[piece] = kitoken.SpecialToken{ID: id, Bytes: []byte(piece), Kind: kind, Ident: ident}
}

// parsedPiece is a non-special vocabulary entry awaiting assignment to
// either the BytePair or Unigram model variant.
type parsedPiece struct {
	id    kitoken.TokenID
	score float32
}

// buildSentencePieceBPEModel synthesizes merge priority from adjacency in
// the piece table: a piece is a merge candidate iff both halves of some
// split point are themselves present in the vocabulary, ranked by piece
// score ascending (tie-broken by id), exactly as upstream sentencepiece's
// from-vocabulary BPE conversion does.
func buildSentencePieceBPEModel(vocab map[string]parsedPiece) kitoken.Model {
	merges := make(map[kitoken.TokenID]float32, len(vocab)*3)
	for text, piece := range vocab {
		for split := 1; split < len(text); split++ {
			left, right := text[:split], text[split:]
			if _, lok := vocab[left]; !lok {
				continue
			}
			if _, rok := vocab[right]; !rok {
				continue
			}
			if _, already := merges[piece.id]; !already {
				merges[piece.id] = piece.score
				break
			}
		}
	}

	out := make(kitoken.Vocab, 0, len(vocab))
	for text, piece := range vocab {
		out = append(out, kitoken.Token{ID: piece.id, Bytes: []byte(text)})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, bi := out[i].ID, out[j].ID
		ma, aok := merges[ai]
		mb, bok := merges[bi]
		switch {
		case aok && bok:
			if ma != mb {
				return mb < ma
			}
			return ai < bi
		case aok:
			return true
		case bok:
			return false
		default:
			return ai < bi
		}
	})
	return kitoken.Model{Kind: kitoken.ModelBytePair, Vocab: out, Chars: true}
}

// buildSentencePieceUnigramModel orders the piece table by ascending score
// (tie-broken by id), the ordering the Unigram engine expects.
func buildSentencePieceUnigramModel(vocab map[string]parsedPiece) kitoken.Model {
	type entry struct {
		text  string
		piece parsedPiece
	}
	entries := make([]entry, 0, len(vocab))
	for text, piece := range vocab {
		entries = append(entries, entry{text, piece})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].piece, entries[j].piece
		if a.score != b.score {
			return a.score < b.score
		}
		return a.id < b.id
	})

	out := make(kitoken.Vocab, len(entries))
	scores := make(kitoken.Scores, len(entries))
	for i, e := range entries {
		out[i] = kitoken.Token{ID: e.piece.id, Bytes: []byte(e.text)}
		scores[i] = e.piece.score
	}
	return kitoken.Model{Kind: kitoken.ModelUnigram, Vocab: out, Scores: scores}
}
