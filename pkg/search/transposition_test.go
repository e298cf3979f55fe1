package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperchess/vesper/pkg/chess"
)

func TestTranspositionCodecIdentity(t *testing.T) {
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)
	entries := []Transposition{
		NewLower(0, 0, m),
		NewUpper(31, ScoreUpper, m),
		NewExact(17, -42, m),
		NewExact(5, ScoreLower, m),
	}

	for _, e := range entries {
		for _, sig := range []uint32{0, 1, 0xffffff} {
			got, gotSig, ok := decodeTransposition(encodeTransposition(e, sig))
			require.True(t, ok)
			assert.Equal(t, sig, gotSig)
			assert.Equal(t, e.Kind, got.Kind)
			assert.Equal(t, e.Depth, got.Depth)
			assert.Equal(t, e.Score, got.Score)
			assert.True(t, got.Move.Equals(e.Move))
		}
	}
}

func TestTranspositionZeroWordIsEmpty(t *testing.T) {
	_, _, ok := decodeTransposition(0)
	assert.False(t, ok)
}

func TestTranspositionOrdering(t *testing.T) {
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)

	assert.True(t, NewLower(3, 0, m).Greater(NewExact(2, 0, m)), "depth dominates kind")
	assert.True(t, NewExact(2, 0, m).Greater(NewUpper(2, 0, m)), "exact beats upper")
	assert.True(t, NewUpper(2, 0, m).Greater(NewLower(2, 0, m)), "upper beats lower")
	assert.False(t, NewLower(2, 0, m).Greater(NewLower(2, 0, m)), "strict")
}

func TestTranspositionBounds(t *testing.T) {
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)

	lo, hi := NewLower(1, 42, m).Bounds()
	assert.Equal(t, Score(42), lo)
	assert.Equal(t, ScoreUpper, hi)

	lo, hi = NewUpper(1, 42, m).Bounds()
	assert.Equal(t, ScoreLower, lo)
	assert.Equal(t, Score(42), hi)

	lo, hi = NewExact(1, 42, m).Bounds()
	assert.Equal(t, Score(42), lo)
	assert.Equal(t, Score(42), hi)
}

func TestTableSizeIsUpperBound(t *testing.T) {
	for _, bytes := range []uint64{0, 7, 8, 100, 1 << 20} {
		table := NewTable(bytes)
		assert.LessOrEqual(t, table.Size(), bytes)
	}
	assert.Equal(t, uint64(0), NewTable(0).Capacity())
	assert.Equal(t, uint64(1), NewTable(8).Capacity())
}

func TestEmptyTableDiscardsStores(t *testing.T) {
	table := NewTable(0)
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)

	table.Set(chess.Key(42), NewExact(1, 0, m))
	_, ok := table.Get(chess.Key(42))
	assert.False(t, ok)
}

func TestTableGetSet(t *testing.T) {
	table := NewTable(1 << 16)
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)

	key := chess.Key(0x123456789abcdef0)
	_, ok := table.Get(key)
	assert.False(t, ok)

	entry := NewExact(5, 42, m)
	table.Set(key, entry)

	got, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, entry.Kind, got.Kind)
	assert.Equal(t, entry.Depth, got.Depth)
	assert.Equal(t, entry.Score, got.Score)

	table.Clear()
	_, ok = table.Get(key)
	assert.False(t, ok)
}

func TestTableSignatureMismatchIsMiss(t *testing.T) {
	table := NewTable(1 << 16)
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)

	key := chess.Key(0x0123456789abcdef)
	table.Set(key, NewExact(5, 42, m))

	// Same bucket, different signature bits.
	other := key ^ (chess.Key(1) << 20)
	_, ok := table.Get(other)
	assert.False(t, ok)
}

func TestTableKeepsGreaterEntry(t *testing.T) {
	table := NewTable(1 << 16)
	m := chess.NewMove(chess.E2, chess.E4, chess.Pawn)
	key := chess.Key(0xfedcba9876543210)

	table.Set(key, NewExact(10, 1, m))
	table.Set(key, NewLower(5, 2, m)) // lesser: ignored

	got, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, Depth(10), got.Depth)
	assert.Equal(t, Score(1), got.Score)

	table.Set(key, NewLower(12, 3, m)) // greater depth: replaces
	got, ok = table.Get(key)
	require.True(t, ok)
	assert.Equal(t, Depth(12), got.Depth)
	assert.Equal(t, Score(3), got.Score)
}
