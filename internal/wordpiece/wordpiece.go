// Package wordpiece implements the WordPiece engine: greedy
// longest-match-first segmentation over two vocab maps, one for
// word-initial tokens and one for continuation tokens (those prefixed with
// a configured subword marker, e.g. "##").
package wordpiece

// Fallback mirrors kitoken.Fallback without importing the root package.
type Fallback uint8

const (
	FallbackBytes Fallback = iota
	FallbackUnknown
	FallbackSkip
)

// Token is the minimal vocab entry shape the engine needs.
type Token struct {
	ID    uint32
	Bytes []byte
}

// Engine is a constructed WordPiece encoder, immutable after New.
type Engine struct {
	start        map[string]uint32
	continuation map[string]uint32

	subwordPrefix string
	unknownID     uint32
	hasUnk        bool
	fallback      []Fallback

	maxWordChars  int
	maxTokenBytes int
	minTokenBytes int
}

// New builds an Engine, splitting vocab into start tokens (those not
// carrying subwordPrefix) and continuation tokens (those that do, keyed
// with the prefix stripped).
func New(vocab []Token, subwordPrefix string, maxWordChars int, unknownID uint32, hasUnknown bool, fallback []Fallback) *Engine {
	start := make(map[string]uint32)
	continuation := make(map[string]uint32)
	maxBytes, minBytes := 1, -1
	prefixLen := len(subwordPrefix)
	for _, t := range vocab {
		s := string(t.Bytes)
		if prefixLen > 0 && len(s) >= prefixLen && s[:prefixLen] == subwordPrefix {
			continuation[s[prefixLen:]] = t.ID
		} else {
			start[s] = t.ID
		}
		if len(t.Bytes) > maxBytes {
			maxBytes = len(t.Bytes)
		}
		if minBytes < 0 || len(t.Bytes) < minBytes {
			minBytes = len(t.Bytes)
		}
	}
	if minBytes < 0 {
		minBytes = 1
	}
	return &Engine{
		start:         start,
		continuation:  continuation,
		subwordPrefix: subwordPrefix,
		unknownID:     unknownID,
		hasUnk:        hasUnknown,
		fallback:      fallback,
		maxWordChars:  maxWordChars,
		maxTokenBytes: maxBytes,
		minTokenBytes: minBytes,
	}
}

// InvalidPieceError reports a piece no fallback could resolve.
type InvalidPieceError struct {
	Piece []byte
}

func (e *InvalidPieceError) Error() string { return "wordpiece: invalid piece" }

// TextPart is a single span fed to the engine.
type TextPart struct {
	Text    string
	Special uint32
}

const specialInvalid = uint32(0xFFFFFFFF)

// Encode segments every part and appends the resulting token ids to result.
// Each part is treated as a single word; the splitter pipeline has already
// isolated word boundaries.
func (e *Engine) Encode(parts []TextPart, result []uint32) ([]uint32, error) {
	for _, part := range parts {
		if part.Special != specialInvalid {
			result = append(result, part.Special)
			continue
		}
		var err error
		result, err = e.encodeWord(part.Text, result)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// encodeWord scans the word front to back, longest match first: starting at
// the front, find the longest prefix present in the relevant vocab map (start
// for the first token, continuation for every subsequent one), emit it,
// advance, and repeat. Any continuation-match failure mid-word discards the
// whole word's progress and re-runs it through fallback instead.
func (e *Engine) encodeWord(text string, result []uint32) ([]uint32, error) {
	if text == "" {
		return result, nil
	}
	if e.maxWordChars > 0 && len([]rune(text)) > e.maxWordChars {
		return e.fallbackEncode([]byte(text), result, e.fallback)
	}

	buf := []byte(text)
	n := len(buf)
	var ids []uint32
	first := true
	init := 0
	until := n
	for until > init {
		matched := false
		vocabMap := e.continuation
		if first {
			vocabMap = e.start
		}
		for end := until; end > init; end-- {
			if id, ok := vocabMap[string(buf[init:end])]; ok {
				ids = append(ids, id)
				init = end
				until = n
				first = false
				matched = true
				break
			}
		}
		if !matched {
			return e.fallbackEncode(buf, result, e.fallback)
		}
	}
	return append(result, ids...), nil
}

func (e *Engine) fallbackEncode(piece []byte, result []uint32, fallback []Fallback) ([]uint32, error) {
	if len(fallback) == 0 {
		return result, &InvalidPieceError{Piece: piece}
	}
	switch fallback[0] {
	case FallbackBytes:
		rest := fallback[1:]
		var err error
		for _, b := range piece {
			sub := []byte{b}
			if id, ok := e.start[string(sub)]; ok {
				result = append(result, id)
				continue
			}
			if id, ok := e.continuation[string(sub)]; ok {
				result = append(result, id)
				continue
			}
			result, err = e.fallbackEncode(sub, result, rest)
			if err != nil {
				return result, err
			}
		}
		return result, nil
	case FallbackUnknown:
		if e.hasUnk {
			return append(result, e.unknownID), nil
		}
		return e.fallbackEncode(piece, result, fallback[1:])
	case FallbackSkip:
		return result, nil
	}
	return result, &InvalidPieceError{Piece: piece}
}
