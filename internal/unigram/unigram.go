// Package unigram implements the Unigram subword engine: a
// forward dynamic-program over scored vocab entries, emitting the
// maximum-score segmentation via a backward walk.
package unigram

import "math"

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
	Score float32
}

// unseenScore is the sentinel cost assigned to a DP cell with no reachable
// segmentation, chosen larger than any real accumulated score so it never
// wins a comparison unless nothing else reaches that position.
const unseenScore = 1_000_000.0

type scoredToken struct {
	id    uint32
	score float32
}

// sizedPart is one DP cell: the best-scoring token ending at a given
// position, its width, and the accumulated path score.
type sizedPart struct {
	start, width int
	score        float32
	token        scoredToken
}

// Engine is a constructed Unigram encoder, immutable after New.
type Engine struct {
	vocab map[string]scoredToken

	unknownID     uint32
	hasUnk        bool
	fallback      []Fallback
	maxTokenBytes int
}

// New builds an Engine from vocab and matching per-token scores.
func New(vocab []Token, unknownID uint32, hasUnknown bool, fallback []Fallback) *Engine {
	m := make(map[string]scoredToken, len(vocab))
	maxBytes := 1
	for _, t := range vocab {
		m[string(t.Bytes)] = scoredToken{id: t.ID, score: t.Score}
		if len(t.Bytes) > maxBytes {
			maxBytes = len(t.Bytes)
		}
	}
	return &Engine{
		vocab:         m,
		unknownID:     unknownID,
		hasUnk:        hasUnknown,
		fallback:      fallback,
		maxTokenBytes: maxBytes,
	}
}

// InvalidPieceError reports a piece no fallback could resolve.
type InvalidPieceError struct {
	Piece []byte
}

func (e *InvalidPieceError) Error() string { return "unigram: invalid piece" }

// TextPart is a single span fed to the engine.
type TextPart struct {
	Text    string
	Special uint32
}

const specialInvalid = uint32(0xFFFFFFFF)

// Encode segments every part and appends the resulting token ids to result.
func (e *Engine) Encode(parts []TextPart, result []uint32) ([]uint32, error) {
	for _, part := range parts {
		if part.Special != specialInvalid {
			result = append(result, part.Special)
			continue
		}
		var err error
		result, err = e.encodePart(part.Text, result, e.fallback)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) encodePart(text string, result []uint32, fallback []Fallback) ([]uint32, error) {
	// No whole-part shortcut here: a whole-part vocab hit is just one more
	// DP candidate, and a multi-piece segmentation can score better.
	parts := mergeParts(text, e.vocab, e.maxTokenBytes)
	var err error
	for _, p := range parts {
		piece := text[p.start : p.start+p.width]
		if p.token.id == invalidTokenID {
			result, err = e.fallbackEncode([]byte(piece), result, fallback)
			if err != nil {
				return result, err
			}
			continue
		}
		result = append(result, p.token.id)
	}
	return result, nil
}

const invalidTokenID = math.MaxUint32

// mergeParts runs the forward DP over text's character-start offsets and
// returns the maximum-score segmentation as an ordered (start-ascending)
// slice of sizedPart, one per emitted piece. Only rune boundaries are
// reachable DP states, so a multi-byte character is never split through its
// interior even when its raw bytes appear in the vocab. A piece with no
// matching vocab entry carries token.id == invalidTokenID and must go
// through fallback.
func mergeParts(text string, vocab map[string]scoredToken, maxTokenBytes int) []sizedPart {
	n := len(text)
	if n == 0 {
		return nil
	}
	bounds := make([]int, 0, n+1)
	for i := range text {
		bounds = append(bounds, i)
	}
	bounds = append(bounds, n)

	// best[i] = best achievable score for text[:i], with bestPart[i]
	// describing the final piece of that best segmentation. Cells off a
	// rune boundary stay at unseenScore and are never visited.
	best := make([]float32, n+1)
	bestPart := make([]sizedPart, n+1)
	for i := 1; i <= n; i++ {
		best[i] = unseenScore
	}
	best[0] = 0

	for bi, start := range bounds[:len(bounds)-1] {
		if best[start] >= unseenScore {
			continue
		}
		for _, end := range bounds[bi+1:] {
			width := end - start
			single := end == bounds[bi+1]
			if width > maxTokenBytes && !single {
				break
			}
			entry, ok := vocab[text[start:end]]
			var candidateScore float32
			var tok scoredToken
			if ok {
				candidateScore = best[start] + entry.score
				tok = entry
			} else if single {
				// An unresolvable single character still occupies a DP
				// cell so the walk can continue; it is resolved via
				// fallback at emission time.
				candidateScore = best[start] - unseenScore
				tok = scoredToken{id: invalidTokenID}
			} else {
				continue
			}
			// Candidates for a given end position arrive longest first
			// (the outer loop walks start ascending), so the incumbent
			// keeps ties: equal-score segmentations prefer the longer
			// final token.
			if best[end] >= unseenScore || candidateScore > best[end] {
				best[end] = candidateScore
				bestPart[end] = sizedPart{start: start, width: width, score: candidateScore, token: tok}
			}
		}
	}

	if best[n] >= unseenScore {
		// No path reached n (shouldn't happen: single characters always
		// provide a fallback path); treat the whole text as one
		// unresolved piece.
		return []sizedPart{{start: 0, width: n, token: scoredToken{id: invalidTokenID}}}
	}

	var reversed []sizedPart
	for pos := n; pos > 0; {
		p := bestPart[pos]
		reversed = append(reversed, p)
		pos = p.start
	}
	out := make([]sizedPart, len(reversed))
	for i, p := range reversed {
		out[len(reversed)-1-i] = p
	}
	return out
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
			if entry, ok := e.vocab[string(sub)]; ok {
				result = append(result, entry.id)
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
