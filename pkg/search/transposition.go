package search

import (
	"fmt"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/util"
)

// Kind states what a stored score means relative to the search window. The
// ordering Lower < Upper < Exact breaks replacement ties at equal depth.
type Kind uint8

const (
	KindLower Kind = iota
	KindUpper
	KindExact
)

func (k Kind) String() string {
	switch k {
	case KindLower:
		return "lower"
	case KindUpper:
		return "upper"
	case KindExact:
		return "exact"
	default:
		return "?"
	}
}

// Transposition is a partial search result for one position: the kind and
// score of the bound, the draft it was searched to, and the best move.
type Transposition struct {
	Kind  Kind
	Depth Depth
	Score Score
	Move  chess.Move
}

// NewLower constructs a lower-bound transposition.
func NewLower(depth Depth, score Score, m chess.Move) Transposition {
	return Transposition{Kind: KindLower, Depth: depth, Score: score, Move: m}
}

// NewUpper constructs an upper-bound transposition.
func NewUpper(depth Depth, score Score, m chess.Move) Transposition {
	return Transposition{Kind: KindUpper, Depth: depth, Score: score, Move: m}
}

// NewExact constructs an exact transposition.
func NewExact(depth Depth, score Score, m chess.Move) Transposition {
	return Transposition{Kind: KindExact, Depth: depth, Score: score, Move: m}
}

// Bounds returns the implied inclusive score range.
func (t Transposition) Bounds() (Score, Score) {
	switch t.Kind {
	case KindLower:
		return t.Score, ScoreUpper
	case KindUpper:
		return ScoreLower, t.Score
	default:
		return t.Score, t.Score
	}
}

// Greater returns true iff t replaces o under the (depth, kind) ordering.
func (t Transposition) Greater(o Transposition) bool {
	if t.Depth != o.Depth {
		return t.Depth > o.Depth
	}
	return t.Kind > o.Kind
}

func (t Transposition) String() string {
	return fmt.Sprintf("%v@%v %v %v", t.Kind, t.Depth, t.Score, t.Move)
}

// The wire format packs a signed transposition into one machine word:
//
//	bit  0      valid
//	bits 1-2    kind
//	bits 3-7    depth
//	bits 8-21   score
//	bits 22-36  best move
//	bits 37-60  signature
func encodeTransposition(t Transposition, sig uint32) uint64 {
	bits := util.Bits(0).
		Push(uint64(sig), 24).
		Push(uint64(t.Move.Encode()), 15).
		Push(uint64(t.Score.Encode()), 14).
		Push(uint64(t.Depth), 5).
		Push(uint64(t.Kind), 2).
		Push(1, 1)
	return uint64(bits)
}

func decodeTransposition(word uint64) (Transposition, uint32, bool) {
	bits := util.Bits(word)
	bits, valid := bits.Pop(1)
	if valid == 0 {
		return Transposition{}, 0, false
	}
	bits, kind := bits.Pop(2)
	bits, depth := bits.Pop(5)
	bits, score := bits.Pop(14)
	bits, move := bits.Pop(15)
	_, sig := bits.Pop(24)

	return Transposition{
		Kind:  Kind(kind),
		Depth: Depth(depth),
		Score: DecodeScore(score),
		Move:  chess.DecodeMove(util.Bits(move)),
	}, uint32(sig), true
}

// Table is the shared transposition table: a fixed-size keyed store that
// keeps the more valuable entry on collision. All operations are lock-free;
// concurrent writers may race, but the winner always satisfies the
// replacement policy relative to what it overwrote.
type Table struct {
	cache *util.Cache
}

// NewTable constructs a table of at most the given number of bytes, rounded
// down to a power-of-two entry count. A zero budget yields an empty table
// that discards all stores.
func NewTable(bytes uint64) *Table {
	return &Table{cache: util.NewCache(bytes / 8)}
}

// Capacity returns the table size in entries.
func (t *Table) Capacity() uint64 {
	return t.cache.Len()
}

// Size returns the table size in bytes.
func (t *Table) Size() uint64 {
	return t.cache.Len() * 8
}

// Clear zeroes the table.
func (t *Table) Clear() {
	t.cache.Clear()
}

func (t *Table) index(key chess.Key) uint64 {
	return uint64(key) & t.cache.Mask()
}

func (t *Table) signature(key chess.Key) uint32 {
	return uint32(uint64(key)>>t.cache.IndexBits()) & 0xffffff
}

// Get loads the transposition stored for the key, if any. A signature
// mismatch is a miss.
func (t *Table) Get(key chess.Key) (Transposition, bool) {
	if t.Capacity() == 0 {
		return Transposition{}, false
	}

	entry, sig, ok := decodeTransposition(t.cache.Load(t.index(key)))
	if !ok || sig != t.signature(key) {
		return Transposition{}, false
	}
	return entry, true
}

// Set stores the transposition for the key. The slot is overwritten iff
// empty, keyed by a different position, or holding a strictly lesser entry.
func (t *Table) Set(key chess.Key, entry Transposition) {
	if t.Capacity() == 0 {
		return
	}

	sig := t.signature(key)
	word := encodeTransposition(entry, sig)
	t.cache.Update(t.index(key), func(old uint64) (uint64, bool) {
		if cur, s, ok := decodeTransposition(old); ok && s == sig && !entry.Greater(cur) {
			return 0, false
		}
		return word, true
	})
}
