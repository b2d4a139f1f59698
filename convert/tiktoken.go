package convert

import (
	"github.com/inference-tools/kitoken"
)

// TiktokenToken is one base64-decoded `<token bytes> <token id>` line from a
// `.tiktoken` vocabulary file. Parsing the base64/line format itself is left
// to the caller, who decodes the lines and hands this package the
// resulting (bytes, id) pairs in file order (merge-priority order).
type TiktokenToken struct {
	Bytes []byte
	ID    kitoken.TokenID
}

// gpt4SplitPattern, cl100kSplitPattern and p50kSplitPattern are the three
// canonical tiktoken pre-tokenizer regexes, chosen by vocab-size threshold
// exactly as the upstream tiktoken defaults do.
//
// The upstream patterns include a `\s+(?!\S)` branch (whitespace not
// immediately followed by a non-whitespace character) ahead of the final
// `\s+` catch-all, to keep a single trailing space attached to the next
// word. Go's regexp (RE2) has no lookaround, so that branch is dropped here
// in favor of the plain `\s+` catch-all, the same simplification used by
// other Go tiktoken re-implementations against RE2 (see DESIGN.md).
const (
	gpt4SplitPattern = `[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?` +
		`|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n/]*|\s*[\r\n]+|\s+`
	cl100kSplitPattern = `'(?i:[sdmt]|ll|ve|re)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]|\s+`
	p50kSplitPattern   = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+`
)

type tiktokenSpecial struct {
	text string
	id   kitoken.TokenID
}

// ConvertTiktoken builds a Definition from a tiktoken vocabulary.
// Tiktoken definitions carry neither special tokens nor a split regex; both
// are chosen from fixed, vocab-size-keyed defaults, matching the upstream
// tiktoken library: a vocab of at least 199,990 entries gets the GPT-4-class
// split regex and special set, at least 100,000 gets the cl100k set,
// otherwise the p50k set.
func ConvertTiktoken(tokens []TiktokenToken) (*kitoken.Definition, error) {
	if len(tokens) == 0 {
		return nil, ErrInvalidData
	}

	vocab := make(kitoken.Vocab, len(tokens))
	for i, t := range tokens {
		vocab[i] = kitoken.Token{ID: t.ID, Bytes: t.Bytes}
	}

	var splitPattern string
	var rawSpecials []tiktokenSpecial
	switch {
	case len(vocab) >= 199990:
		splitPattern = gpt4SplitPattern
		rawSpecials = []tiktokenSpecial{
			{"<|endoftext|>", 199999},
			{"<|endofprompt|>", 200018},
		}
	case len(vocab) >= 100000:
		splitPattern = cl100kSplitPattern
		rawSpecials = []tiktokenSpecial{
			{"<|endoftext|>", 100257},
			{"<|fim_prefix|>", 100258},
			{"<|fim_middle|>", 100259},
			{"<|fim_suffix|>", 100260},
			{"<|endofprompt|>", 100276},
			{"<|im_start|>", 100264},
			{"<|im_end|>", 100265},
		}
	default:
		splitPattern = p50kSplitPattern
		rawSpecials = []tiktokenSpecial{
			{"<|endoftext|>", 50256},
			{"<|fim_prefix|>", 50281},
			{"<|fim_middle|>", 50282},
			{"<|fim_suffix|>", 50283},
		}
	}
	if err := compileSplit(splitPattern); err != nil {
		return nil, err
	}

	specials := make(kitoken.SpecialVocab, len(rawSpecials))
	for i, s := range rawSpecials {
		specials[i] = kitoken.SpecialToken{
			ID:      s.id,
			Bytes:   []byte(s.text),
			Kind:    kitoken.SpecialControl,
			Score:   float32(i),
			Extract: true,
		}
	}
	kitoken.SortSpecialVocab(specials)

	config := kitoken.Configuration{
		Split: []kitoken.Split{
			{Kind: kitoken.SplitPattern, Pattern: splitPattern, Behavior: kitoken.SplitIsolate},
		},
		Fallback: []kitoken.Fallback{kitoken.FallbackBytes},
	}

	model := kitoken.Model{Kind: kitoken.ModelBytePair, Vocab: vocab}
	meta := kitoken.Metadata{Source: "tiktoken"}

	def, err := kitoken.NewDefinition(meta, model, specials, config)
	if err != nil {
		return nil, err
	}
	logConverted("tiktoken", len(vocab), len(specials))
	return def, nil
}
