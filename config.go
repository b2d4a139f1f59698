package kitoken

// UnicodeScheme selects one of the four standard Unicode normalization forms.
type UnicodeScheme uint8

const (
	NFC UnicodeScheme = iota
	NFD
	NFKC
	NFKD
)

// NormalizationKind tags the variant carried by a Normalization step.
type NormalizationKind uint8

const (
	NormUnicode NormalizationKind = iota
	NormNMT
	NormCaseFold
	NormAppend
	NormPrepend
	NormExtend
	NormStrip
	NormCollapse
	NormReplace
	NormCharsMap
)

// Normalization is a single step of the normalizer pipeline. Only the
// fields relevant to Kind are meaningful.
type Normalization struct {
	Kind NormalizationKind

	Scheme UnicodeScheme // NormUnicode

	Upper bool // NormCaseFold

	Text string // NormAppend, NormPrepend

	Character rune // NormExtend, NormStrip, NormCollapse
	Left      uint32
	Right     uint32
	Pad       bool // NormExtend only

	Pattern     string // NormReplace
	Replacement string // NormReplace
}

// SplitBehavior controls how a Split rule's matches combine with the gaps
// between them.
type SplitBehavior uint8

const (
	SplitMatch SplitBehavior = iota
	SplitRemove
	SplitIsolate
	SplitMerge
	SplitMergeLeft
	SplitMergeRight
)

// SplitKind tags the variant carried by a Split rule.
type SplitKind uint8

const (
	SplitPattern SplitKind = iota
	SplitCharacter
	// SplitWhitespace and SplitWhitespacePunctuation are the named presets
	// the tokenizers converter emits for its "Whitespace" and
	// "BertPreTokenizer" pre-tokenizers: UAX #29 word-boundary
	// splitting instead of a hand-rolled ASCII classifier. Pattern and
	// Character are unused for these kinds.
	SplitWhitespace
	SplitWhitespacePunctuation
)

// Split is a single rule of the splitter pipeline.
type Split struct {
	Kind      SplitKind
	Pattern   string // SplitPattern
	Character rune   // SplitCharacter
	Behavior  SplitBehavior
}

// Fallback is the policy tried, in configured order, when an engine cannot
// resolve a piece to a vocabulary token.
type Fallback uint8

const (
	// FallbackBytes recursively re-encodes the piece at byte granularity.
	FallbackBytes Fallback = iota
	// FallbackUnknown emits the Unknown special token id, if one is defined.
	FallbackUnknown
	// FallbackSkip drops the piece, emitting nothing.
	FallbackSkip
)

// ProcessingKind tags the variant carried by a Processing step.
type ProcessingKind uint8

const (
	ProcStrip ProcessingKind = iota
	ProcCollapse
	ProcTruncate
	ProcPad
)

// Direction selects the side of the sequence (left or right) that a Truncate
// or Pad step operates on.
type Direction uint8

const (
	DirLeft Direction = iota
	DirRight
)

// Processing is a single token-stream transform applied after encoding.
type Processing struct {
	Kind ProcessingKind

	ID    TokenID // ProcStrip, ProcCollapse, ProcPad
	Left  uint32  // ProcStrip
	Right uint32  // ProcStrip

	Length    uint32    // ProcTruncate, ProcPad
	Stride    uint32    // ProcTruncate, ProcPad
	Direction Direction // ProcTruncate, ProcPad
}

// DecodingKind tags the variant carried by a Decoding step.
type DecodingKind uint8

const (
	DecExtend DecodingKind = iota
	DecStrip
	DecCollapse
	DecReplace
)

// Decoding is a single byte-stream transform applied during decode,
// mirroring Normalization's Extend/Strip/Collapse/Replace steps but operating
// on the decoded byte stream instead of input text.
type Decoding struct {
	Kind DecodingKind

	Character rune // DecExtend, DecStrip, DecCollapse
	Left      uint32
	Right     uint32
	Pad       bool // DecExtend only

	Pattern     string // DecReplace
	Replacement string // DecReplace
}

// TemplatePosition names the fixed insertion point of a templated special
// token.
type TemplatePosition uint8

const (
	PositionSequenceStart TemplatePosition = iota
	PositionSequenceEnd
	PositionSubSequenceStart
	PositionSubSequenceEnd
	PositionSequenceContinuation
	PositionWordEnd
	PositionWordContinuation
)

// Template places a fixed byte string at a structural position in the token
// stream or a word's encoding. WordEnd and WordContinuation templates
// are consumed directly by the BytePair/WordPiece engines. Encode prepends
// the special token named by a SequenceStart template and appends the one
// named by a SequenceEnd template; a template whose content is not a
// special token's bytes is ignored. SubSequenceStart, SubSequenceEnd and
// SequenceContinuation templates are not applied by Encode.
type Template struct {
	Content  string
	Position TemplatePosition
}

// Configuration holds every pipeline and policy a Definition needs to encode
// and decode text.
type Configuration struct {
	Normalization []Normalization
	Split         []Split
	Fallback      []Fallback
	Processing    []Processing
	Decoding      []Decoding
	Templates     []Template
}

// WordContinuationPrefix returns the configured WordPiece continuation
// marker, if any (e.g. "##"), and whether one was found.
func (c *Configuration) WordContinuationPrefix() (string, bool) {
	for _, t := range c.Templates {
		if t.Position == PositionWordContinuation {
			return t.Content, true
		}
	}
	return "", false
}

// WordEndSuffix returns the configured BytePair/CharPair word-end marker, if
// any, and whether one was found.
func (c *Configuration) WordEndSuffix() (string, bool) {
	for _, t := range c.Templates {
		if t.Position == PositionWordEnd {
			return t.Content, true
		}
	}
	return "", false
}
