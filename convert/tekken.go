package convert

import (
	"fmt"

	"github.com/inference-tools/kitoken"
)

// TekkenToken is one entry of a tekken vocabulary: a merge-priority rank and
// its raw token bytes. Parsing the tekken.json document itself is left to
// the caller, who decodes the JSON and hands this package the
// parsed vocab, split pattern, and the two size fields from `config`.
type TekkenToken struct {
	Rank  uint32
	Bytes []byte
}

// tekkenFixedSpecials is the fixed list of 14 named Mistral/tekken special
// tokens, in their canonical order. Index 0 ("<unk>") is always promoted to
// SpecialUnknown by ConvertTekken.
var tekkenFixedSpecials = []struct {
	text    string
	ident   string
	extract bool
}{
	{"<unk>", "unk", false},
	{"<s>", "bos", false},
	{"</s>", "eos", false},
	{"[INST]", "", true},
	{"[/INST]", "", true},
	{"[AVAILABLE_TOOLS]", "", true},
	{"[/AVAILABLE_TOOLS]", "", true},
	{"[TOOL_RESULTS]", "", true},
	{"[/TOOL_RESULTS]", "", true},
	{"[TOOL_CALLS]", "", true},
	{"<pad>", "pad", false},
	{"[PREFIX]", "", true},
	{"[MIDDLE]", "", true},
	{"[SUFFIX]", "", true},
}

// ConvertTekken builds a Definition from a tekken vocabulary. pattern is
// the tekken config's split regex; defaultVocabSize and
// defaultNumSpecialTokens are the corresponding config fields (0 means "use
// the natural length" for each, mirroring the upstream tekken defaults). The vocabulary is capped to defaultVocabSize-specialsCount
// entries, discarding any remainder beyond it, matching tekken's own
// behavior.
func ConvertTekken(tokens []TekkenToken, pattern string, defaultVocabSize, defaultNumSpecialTokens int) (*kitoken.Definition, error) {
	if err := compileSplit(pattern); err != nil {
		return nil, err
	}

	specialsLen := defaultNumSpecialTokens
	if specialsLen <= 0 {
		specialsLen = len(tekkenFixedSpecials)
	}
	vocabLen := defaultVocabSize
	if vocabLen <= 0 {
		vocabLen = len(tokens)
	}
	if vocabLen > len(tokens)+specialsLen {
		return nil, fmt.Errorf("%w: too many tokens: %d > %d", ErrInvalidData, vocabLen, len(tokens)+specialsLen)
	}

	specials := make(kitoken.SpecialVocab, 0, specialsLen)
	for i, s := range tekkenFixedSpecials {
		if i >= specialsLen {
			break
		}
		kind := kitoken.SpecialControl
		if i == 0 {
			kind = kitoken.SpecialUnknown
		}
		specials = append(specials, kitoken.SpecialToken{
			ID:      uint32(i),
			Bytes:   []byte(s.text),
			Kind:    kind,
			Ident:   s.ident,
			Score:   float32(i),
			Extract: s.extract,
		})
	}
	for i := len(specials); i < specialsLen; i++ {
		specials = append(specials, kitoken.SpecialToken{
			ID:      uint32(i),
			Bytes:   []byte(fmt.Sprintf("<SPECIAL_%d>", i)),
			Kind:    kitoken.SpecialControl,
			Score:   float32(i),
			Extract: true,
		})
	}
	kitoken.SortSpecialVocab(specials)

	// tekken reserves the low ids for specials and assigns vocabulary ranks
	// starting right after them; this throws away any vocab tokens beyond
	// the configured vocab size, matching upstream tekken.
	keep := vocabLen - len(specials)
	if keep < 0 {
		keep = 0
	}
	if keep > len(tokens) {
		keep = len(tokens)
	}
	vocab := make(kitoken.Vocab, keep)
	for i := 0; i < keep; i++ {
		vocab[i] = kitoken.Token{ID: tokens[i].Rank + uint32(len(specials)), Bytes: tokens[i].Bytes}
	}
	kitoken.SortVocabByID(vocab)

	model := kitoken.Model{Kind: kitoken.ModelBytePair, Vocab: vocab}
	config := kitoken.Configuration{
		Split:    []kitoken.Split{{Kind: kitoken.SplitPattern, Pattern: pattern, Behavior: kitoken.SplitIsolate}},
		Fallback: []kitoken.Fallback{kitoken.FallbackUnknown, kitoken.FallbackSkip},
		Templates: []kitoken.Template{
			{Content: "<s>", Position: kitoken.PositionSequenceStart},
			{Content: "</s>", Position: kitoken.PositionSequenceEnd},
		},
	}
	meta := kitoken.Metadata{Source: "tekken"}

	def, err := kitoken.NewDefinition(meta, model, specials, config)
	if err != nil {
		return nil, err
	}
	logConverted("tekken", len(vocab), len(specials))
	return def, nil
}
