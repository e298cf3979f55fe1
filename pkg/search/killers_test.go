package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vesperchess/vesper/pkg/chess"
)

func TestKillerInsert(t *testing.T) {
	a := chess.NewMove(chess.G1, chess.F3, chess.Knight)
	b := chess.NewMove(chess.B1, chess.C3, chess.Knight)
	c := chess.NewMove(chess.E2, chess.E3, chess.Pawn)

	var k Killer
	assert.False(t, k.Contains(a))

	k = k.Insert(a)
	assert.True(t, k.Contains(a))

	k = k.Insert(b)
	assert.True(t, k.Contains(a))
	assert.True(t, k.Contains(b))

	k = k.Insert(c)
	assert.True(t, k.Contains(b))
	assert.True(t, k.Contains(c))
	assert.False(t, k.Contains(a), "oldest killer evicted")
}

func TestKillerInsertIsIdempotent(t *testing.T) {
	a := chess.NewMove(chess.G1, chess.F3, chess.Knight)
	b := chess.NewMove(chess.B1, chess.C3, chess.Knight)

	var k Killer
	k = k.Insert(b).Insert(a)
	assert.Equal(t, k, k.Insert(a))
	assert.True(t, k.Contains(a))
	assert.True(t, k.Contains(b))
}

func TestKillersTable(t *testing.T) {
	var ks Killers
	m := chess.NewMove(chess.G1, chess.F3, chess.Knight)

	ks.Insert(3, chess.White, m)
	assert.True(t, ks.Get(3, chess.White).Contains(m))
	assert.False(t, ks.Get(3, chess.Black).Contains(m))
	assert.False(t, ks.Get(4, chess.White).Contains(m))

	first, ok := ks.Get(3, chess.White).First()
	assert.True(t, ok)
	assert.True(t, first.Equals(m))

	ks.Clear()
	assert.False(t, ks.Get(3, chess.White).Contains(m))
}

func TestKillersOutOfRangePlyIsIgnored(t *testing.T) {
	var ks Killers
	m := chess.NewMove(chess.G1, chess.F3, chess.Knight)

	ks.Insert(-1, chess.White, m)
	ks.Insert(MaxPly, chess.White, m)
	assert.False(t, ks.Get(-1, chess.White).Contains(m))
	assert.False(t, ks.Get(MaxPly, chess.White).Contains(m))
}
