// Package bytepair implements the BytePair/CharPair merge engine:
// rank-priority iterative pair merging, with a linear O(n^2) path for
// short pieces and a heap-based path, built on container/heap, for long
// ones.
package bytepair

import (
	"container/heap"
	"math"
)

// encodeLinearLimit is the piece-length threshold (bytes, or characters in
// CharPair mode) at or below which the linear merge path is used.
const encodeLinearLimit = 192

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

// vocabEntry pairs a token id with its rank (its position in the
// merge-priority-ordered vocab).
type vocabEntry struct {
	id   uint32
	rank uint32
}

// Engine is a constructed BytePair/CharPair encoder, immutable after New.
type Engine struct {
	vocab map[string]vocabEntry
	chars bool

	wordEnd   string
	unknownID uint32
	hasUnk    bool
	fallback  []Fallback

	maxTokenBytes int
	minTokenBytes int
}

// New builds an Engine from vocab (already ordered by ascending merge rank,
// lower rank merging earlier), chars selects CharPair (true) vs BytePair
// (false) seeding.
func New(vocab []Token, chars bool, wordEnd string, unknownID uint32, hasUnknown bool, fallback []Fallback) *Engine {
	m := make(map[string]vocabEntry, len(vocab))
	maxBytes, minBytes := 1, math.MaxInt32
	for i, t := range vocab {
		m[string(t.Bytes)] = vocabEntry{id: t.ID, rank: uint32(i)}
		if len(t.Bytes) > maxBytes {
			maxBytes = len(t.Bytes)
		}
		if len(t.Bytes) < minBytes {
			minBytes = len(t.Bytes)
		}
	}
	if minBytes == math.MaxInt32 {
		minBytes = 1
	}
	return &Engine{
		vocab:         m,
		chars:         chars,
		wordEnd:       wordEnd,
		unknownID:     unknownID,
		hasUnk:        hasUnknown,
		fallback:      fallback,
		maxTokenBytes: maxBytes,
		minTokenBytes: minBytes,
	}
}

// InvalidPieceError reports a piece no fallback could resolve.
type InvalidPieceError struct {
	Piece []byte
}

func (e *InvalidPieceError) Error() string {
	return "bytepair: invalid piece"
}

// TextPart is a single span fed to the engine: either a special token
// (Special holds its id) or ordinary text to merge.
type TextPart struct {
	Text    string
	Special uint32
}

const specialInvalid = uint32(0xFFFFFFFF)

// Encode merges every part and appends the resulting token ids to result.
func (e *Engine) Encode(parts []TextPart, result []uint32) ([]uint32, error) {
	for _, part := range parts {
		if part.Special != specialInvalid {
			result = append(result, part.Special)
			continue
		}
		if part.Text == "" {
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
	full := text + e.wordEnd
	if entry, ok := e.vocab[full]; ok {
		return append(result, entry.id), nil
	}
	pieces := e.seed(text, full)
	if e.pieceLen(pieces) <= encodeLinearLimit {
		pieces = mergeLinear([]byte(full), pieces, e.rankOf)
	} else {
		pieces = mergeHeap([]byte(full), pieces, e.rankOf)
	}
	for _, p := range pieces {
		pieceBytes := []byte(full)[p.start:p.end]
		if entry, ok := e.vocab[string(pieceBytes)]; ok {
			result = append(result, entry.id)
			continue
		}
		var err error
		result, err = e.fallbackEncode(pieceBytes, result, fallback)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) pieceLen(pieces []piece) int {
	return len(pieces)
}

func (e *Engine) fallbackEncode(pieceBytes []byte, result []uint32, fallback []Fallback) ([]uint32, error) {
	if len(fallback) == 0 {
		return result, &InvalidPieceError{Piece: pieceBytes}
	}
	switch fallback[0] {
	case FallbackBytes:
		byteParts := make([]piece, len(pieceBytes))
		for i := range pieceBytes {
			byteParts[i] = piece{start: i, end: i + 1}
		}
		merged := mergeLinear(pieceBytes, byteParts, e.rankOf)
		rest := fallback[1:]
		var err error
		for _, p := range merged {
			sub := pieceBytes[p.start:p.end]
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
		return e.fallbackEncode(pieceBytes, result, fallback[1:])
	case FallbackSkip:
		return result, nil
	}
	return result, &InvalidPieceError{Piece: pieceBytes}
}

func (e *Engine) rankOf(b []byte) (uint32, bool) {
	entry, ok := e.vocab[string(b)]
	if !ok {
		return math.MaxUint32, false
	}
	return entry.rank, true
}

// seed builds the initial one-boundary-per-unit piece list over full =
// text+wordEnd: one boundary per byte offset in BytePair mode, one per
// Unicode scalar start offset in CharPair mode. Boundaries are only placed
// within text (excluding the appended wordEnd suffix); the final piece
// absorbs the suffix bytes.
func (e *Engine) seed(text, full string) []piece {
	var starts []int
	if e.chars {
		for i := range text {
			starts = append(starts, i)
		}
	} else {
		for i := 0; i < len(text); i++ {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		starts = []int{0}
	}
	pieces := make([]piece, len(starts))
	for i, s := range starts {
		end := len(full)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		pieces[i] = piece{start: s, end: end}
	}
	return pieces
}

type piece struct {
	start, end int
	rank       uint32
}

// mergeLinear implements the O(n^2) linear merge path.
func mergeLinear(buf []byte, pieces []piece, rankOf func([]byte) (uint32, bool)) []piece {
	if len(pieces) <= 1 {
		return pieces
	}
	getRank := func(start, end int) uint32 {
		r, ok := rankOf(buf[pieces[start].start:pieces[end-1].end])
		if !ok {
			return math.MaxUint32
		}
		return r
	}
	for i := 0; i < len(pieces)-1; i++ {
		pieces[i].rank = getRank(i, i+2)
	}
	for len(pieces) > 1 {
		minRank := uint32(math.MaxUint32)
		minIdx := -1
		for i := 0; i < len(pieces)-1; i++ {
			if pieces[i].rank < minRank {
				minRank = pieces[i].rank
				minIdx = i
			}
		}
		if minIdx < 0 || minRank == math.MaxUint32 {
			break
		}
		i := minIdx
		mergedEnd := pieces[i+1].end
		if i > 0 {
			pieces[i-1].rank = getRank(i-1, i+2)
		}
		if i+2 < len(pieces) {
			pieces[i].rank = getRank(i, i+3)
		} else {
			pieces[i].rank = math.MaxUint32
		}
		pieces[i].end = mergedEnd
		pieces = append(pieces[:i+1], pieces[i+2:]...)
	}
	return pieces
}

// --- heap-based merge path ---

const maxIndex = math.MaxUint32

type hpNode struct {
	start, end   int
	rank         uint32
	prior, after uint32
}

// indexHeap is a dense-index min-heap over hpNode ranks, keyed by
// (rank, start) with leftmost-start tie-break. Keying by dense index rather
// than pointers keeps update and remove at O(log n) without hashing.
type indexHeap struct {
	nodes []hpNode
	heap  []uint32
	pos   []int // pos[nodeIdx] = slot in heap, or -1
}

func (h *indexHeap) Len() int { return len(h.heap) }
func (h *indexHeap) Less(i, j int) bool {
	a, b := h.nodes[h.heap[i]], h.nodes[h.heap[j]]
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.start < b.start
}
func (h *indexHeap) Swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i]] = i
	h.pos[h.heap[j]] = j
}
func (h *indexHeap) Push(x any) {
	idx := x.(uint32)
	h.pos[idx] = len(h.heap)
	h.heap = append(h.heap, idx)
}
func (h *indexHeap) Pop() any {
	n := len(h.heap)
	idx := h.heap[n-1]
	h.heap = h.heap[:n-1]
	h.pos[idx] = -1
	return idx
}

func (h *indexHeap) update(idx uint32, newRank uint32) {
	h.nodes[idx].rank = newRank
	present := h.pos[idx] >= 0
	if newRank == maxIndex {
		if present {
			heap.Remove(h, h.pos[idx])
		}
		return
	}
	if present {
		heap.Fix(h, h.pos[idx])
	} else {
		heap.Push(h, idx)
	}
}

// mergeHeap implements the indexed-heap merge path used above
// encodeLinearLimit.
func mergeHeap(buf []byte, pieces []piece, rankOf func([]byte) (uint32, bool)) []piece {
	n := len(pieces)
	if n <= 1 {
		return pieces
	}
	h := &indexHeap{
		nodes: make([]hpNode, n),
		pos:   make([]int, n),
	}
	for i := range h.pos {
		h.pos[i] = -1
	}
	pairRank := func(a, b piece) uint32 {
		r, ok := rankOf(buf[a.start:b.end])
		if !ok {
			return maxIndex
		}
		return r
	}
	for i := 0; i < n; i++ {
		prior, after := uint32(maxIndex), uint32(maxIndex)
		if i > 0 {
			prior = uint32(i - 1)
		}
		if i+1 < n {
			after = uint32(i + 1)
		}
		rank := uint32(maxIndex)
		if i+1 < n {
			rank = pairRank(pieces[i], pieces[i+1])
		}
		h.nodes[i] = hpNode{start: pieces[i].start, end: pieces[i].end, rank: rank, prior: prior, after: after}
		if rank != maxIndex {
			heap.Push(h, uint32(i))
		}
	}
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	for h.Len() > 0 {
		i := heap.Pop(h).(uint32)
		node := h.nodes[i]
		j := node.after
		if j == maxIndex || !alive[j] {
			continue
		}
		other := h.nodes[j]
		h.nodes[i].end = other.end
		h.nodes[i].after = other.after
		if other.after != maxIndex {
			h.nodes[other.after].prior = i
		}
		alive[j] = false
		if h.pos[j] >= 0 {
			heap.Remove(h, h.pos[j])
		}
		merged := piece{start: h.nodes[i].start, end: h.nodes[i].end}
		if h.nodes[i].after != maxIndex {
			next := piece{start: h.nodes[h.nodes[i].after].start, end: h.nodes[h.nodes[i].after].end}
			h.update(i, pairRank(merged, next))
		} else {
			h.update(i, maxIndex)
		}
		if h.nodes[i].prior != maxIndex {
			p := h.nodes[i].prior
			prevPiece := piece{start: h.nodes[p].start, end: h.nodes[p].end}
			h.update(p, pairRank(prevPiece, merged))
		}
	}
	var out []piece
	for i := uint32(0); i != maxIndex; {
		out = append(out, piece{start: h.nodes[i].start, end: h.nodes[i].end})
		i = h.nodes[i].after
	}
	return out
}
