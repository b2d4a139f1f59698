// Package kitoken implements a language-model tokenizer compatible with the
// BytePair/CharPair, Unigram and WordPiece tokenization schemes used by the
// major upstream tokenizer ecosystems.
package kitoken

import "sort"

// TokenID is the numeric identifier of a vocabulary entry.
type TokenID = uint32

// TokenInvalid marks the absence of a token id, e.g. in a TextPart that
// carries no special token.
const TokenInvalid TokenID = 0xFFFFFFFF

// TokenScore is the log-probability associated with a Unigram vocab entry.
// Higher (closer to zero) scores are more likely; the Unigram engine keeps
// the segmentation with the highest total score.
type TokenScore = float32

// Token is a single vocabulary entry: a numeric id and its byte sequence.
type Token struct {
	ID    TokenID
	Bytes []byte
}

// Vocab is an ordered list of tokens. The order is engine-dependent: ascending
// merge rank for BytePair/CharPair, ascending score (tie-broken by id) for
// Unigram, ascending id for WordPiece.
type Vocab []Token

// Scores is a list of token scores, parallel to a Vocab, meaningful only for
// the Unigram model.
type Scores []TokenScore

// SpecialTokenKind classifies a SpecialToken for ordering and decoding
// purposes.
type SpecialTokenKind uint8

const (
	// SpecialUnknown is the placeholder emitted for unencodable pieces.
	// At most one special may carry this kind.
	SpecialUnknown SpecialTokenKind = iota
	// SpecialControl tokens (pad, bos, eos, sep, mask, ...) are suppressed
	// from Decode output unless decodeSpecials is requested.
	SpecialControl
	// SpecialPriority tokens are prioritized literal matches during
	// encoding and are always emitted on decode.
	SpecialPriority
)

// SpecialToken is a token reserved outside the regular vocabulary path, used
// for control tokens (BOS, EOS, PAD, UNK, ...) or prioritized literals.
type SpecialToken struct {
	ID    TokenID
	Bytes []byte
	Kind  SpecialTokenKind
	// Ident is a short common identifier, e.g. "cls", "sep", "pad", "mask".
	Ident string
	// Score prioritizes special tokens of equal Kind during ordering.
	Score TokenScore
	// Extract marks this token to be split out of the input before
	// normalization, so that control tokens are never mangled by case
	// folding or Unicode normalization.
	Extract bool
}

// SpecialVocab is an ordered list of special tokens, sorted by Kind, then
// Score, then ID.
type SpecialVocab []SpecialToken

// SortVocabByID sorts v by ascending token id, the vocab order of the
// WordPiece model.
func SortVocabByID(v Vocab) {
	sort.Slice(v, func(i, j int) bool { return v[i].ID < v[j].ID })
}

// SortSpecialVocab sorts specials by Kind, then Score, then ID, matching the
// ordering invariant in the data model.
func SortSpecialVocab(specials SpecialVocab) {
	sort.Slice(specials, func(i, j int) bool {
		a, b := specials[i], specials[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.ID < b.ID
	})
}
