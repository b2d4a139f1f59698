package kitoken

import (
	"github.com/google/uuid"

	"github.com/inference-tools/kitoken/internal/regexutil"
)

// Metadata carries free-form provenance about a Definition.
type Metadata struct {
	// Version of kitoken-go that produced this definition.
	Version string
	// Source names the origin ecosystem, e.g. "tokenizers", "tiktoken",
	// "sentencepiece", "tekken", or "kitoken" for hand-authored definitions.
	Source string
	// Meta holds additional key/value pairs, e.g. a "definition_id"
	// correlation id stamped by NewDefinition.
	Meta []KeyValue
}

// KeyValue is an ordered metadata pair. Order is not significant to
// Definition equality.
type KeyValue struct {
	Key   string
	Value string
}

// ModelKind tags the variant carried by a Model.
type ModelKind uint8

const (
	ModelBytePair ModelKind = iota
	ModelUnigram
	ModelWordPiece
)

// Model is the tagged union of the three supported tokenization engines
// Exactly the fields relevant to Kind are populated.
type Model struct {
	Kind ModelKind

	Vocab Vocab

	Chars bool // ModelBytePair: encode at character, not byte, granularity.

	Scores Scores // ModelUnigram

	MaxWordChars uint32 // ModelWordPiece
}

// Definition is the full, validated description of a tokenizer: metadata,
// model, special tokens and configuration. Definitions are immutable
// once constructed via NewDefinition.
type Definition struct {
	Meta     Metadata
	Model    Model
	Specials SpecialVocab
	Config   Configuration
}

// NewDefinition validates the given parts and returns an immutable
// Definition, stamping a correlation id into Meta.Meta if one is not already
// present.
func NewDefinition(meta Metadata, model Model, specials SpecialVocab, config Configuration) (*Definition, error) {
	if err := validateModel(model); err != nil {
		return nil, err
	}
	if err := validateSpecials(model.Vocab, specials); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if !hasMetaKey(meta.Meta, "definition_id") {
		meta.Meta = append(meta.Meta, KeyValue{Key: "definition_id", Value: uuid.NewString()})
	}
	return &Definition{Meta: meta, Model: model, Specials: specials, Config: config}, nil
}

func hasMetaKey(meta []KeyValue, key string) bool {
	for _, kv := range meta {
		if kv.Key == key {
			return true
		}
	}
	return false
}

func validateModel(model Model) error {
	if len(model.Vocab) == 0 {
		return ErrInvalidEncoder
	}
	ids := make(map[TokenID]struct{}, len(model.Vocab))
	bytes := make(map[string]struct{}, len(model.Vocab))
	maxBytes := 0
	for _, t := range model.Vocab {
		if _, ok := ids[t.ID]; ok {
			return ErrInvalidEncoder
		}
		ids[t.ID] = struct{}{}
		key := string(t.Bytes)
		if _, ok := bytes[key]; ok {
			return ErrInvalidEncoder
		}
		bytes[key] = struct{}{}
		if len(t.Bytes) > maxBytes {
			maxBytes = len(t.Bytes)
		}
	}
	if maxBytes < 1 {
		return ErrInvalidEncoder
	}
	if model.Kind == ModelUnigram && len(model.Vocab) != len(model.Scores) {
		return ErrInvalidScores
	}
	return nil
}

func validateSpecials(vocab Vocab, specials SpecialVocab) error {
	vocabBytes := make(map[TokenID][]byte, len(vocab))
	for _, t := range vocab {
		vocabBytes[t.ID] = t.Bytes
	}
	ids := make(map[TokenID]struct{}, len(specials))
	unknownCount := 0
	for _, s := range specials {
		if _, ok := ids[s.ID]; ok {
			return ErrInvalidSpecialEncoder
		}
		ids[s.ID] = struct{}{}
		if vb, ok := vocabBytes[s.ID]; ok && string(vb) != string(s.Bytes) {
			return ErrInvalidSpecialEncoder
		}
		if s.Kind == SpecialUnknown {
			unknownCount++
		}
	}
	if unknownCount > 1 {
		return ErrInvalidSpecialEncoder
	}
	return nil
}

func validateConfig(config Configuration) error {
	for _, n := range config.Normalization {
		if n.Kind == NormReplace {
			if _, err := regexutil.Compile(n.Pattern); err != nil {
				return ErrInvalidRegex
			}
		}
		if n.Kind == NormCharsMap {
			// Precompiled charsmaps are not implemented; reject
			// configurations that require one rather than silently
			// ignoring the step.
			return ErrInvalidConfig
		}
	}
	for _, s := range config.Split {
		if s.Kind == SplitPattern {
			if _, err := regexutil.Compile(s.Pattern); err != nil {
				return ErrInvalidRegex
			}
		}
	}
	seenWordEnd, seenWordContinuation := false, false
	for _, t := range config.Templates {
		switch t.Position {
		case PositionWordEnd:
			if seenWordEnd {
				return ErrInvalidConfig
			}
			seenWordEnd = true
		case PositionWordContinuation:
			if seenWordContinuation {
				return ErrInvalidConfig
			}
			seenWordContinuation = true
		}
	}
	return nil
}
