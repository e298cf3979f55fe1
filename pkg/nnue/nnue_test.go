package nnue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperchess/vesper/pkg/chess"
)

func TestFeatureIndexInRange(t *testing.T) {
	for ksq := chess.ZeroSquare; ksq < chess.NumSquares; ksq++ {
		for sq := chess.ZeroSquare; sq < chess.NumSquares; sq++ {
			for piece := chess.Pawn; piece <= chess.King; piece++ {
				for c := chess.ZeroColor; c < chess.NumColors; c++ {
					f := Feature{King: ksq, Color: c, Piece: piece, Square: sq}
					assert.Less(t, int(f.Index(chess.White)), FeatureCount)
					assert.Less(t, int(f.Index(chess.Black)), FeatureCount)
				}
			}
		}
	}
}

func TestFeatureMirrorIsInvolution(t *testing.T) {
	f := Feature{King: chess.E1, Color: chess.White, Piece: chess.Knight, Square: chess.C3}
	assert.NotEqual(t, f, f.Mirror())
	assert.Equal(t, f, f.Mirror().Mirror())

	// Perspectives agree through the mirror.
	assert.Equal(t, f.Index(chess.White), f.Mirror().Index(chess.Black))
}

func TestFeatureIndexIsUnique(t *testing.T) {
	seen := map[uint16]Feature{}
	for ksq := chess.ZeroSquare; ksq < chess.NumSquares; ksq += 9 {
		for sq := chess.ZeroSquare; sq < chess.NumSquares; sq++ {
			for piece := chess.Pawn; piece < chess.King; piece++ {
				for c := chess.ZeroColor; c < chess.NumColors; c++ {
					f := Feature{King: ksq, Color: c, Piece: piece, Square: sq}
					idx := f.Index(chess.White)
					if prev, ok := seen[idx]; ok {
						t.Fatalf("index collision: %v and %v -> %v", prev, f, idx)
					}
					seen[idx] = f
				}
			}
		}
	}
}

func TestPositionalRefreshEqualsAdds(t *testing.T) {
	features := []uint16{0, 17, 4095, 45055}

	var a, b Positional
	a.Refresh(features, features)

	b.Refresh(nil, nil)
	for _, f := range features {
		b.Add(f, f)
	}

	assert.Equal(t, a, b)
}

func TestPositionalAddRemoveIsIdentity(t *testing.T) {
	var a, b Positional
	a.Refresh([]uint16{1, 2, 3}, []uint16{4, 5, 6})
	b = a

	b.Add(100, 200)
	b.Remove(100, 200)
	assert.Equal(t, a, b)
}

func TestAccumulatorMirrorIsInvolution(t *testing.T) {
	var a, b Positional
	a.Refresh([]uint16{1, 2, 3}, []uint16{4, 5, 6})
	b = a

	b.Mirror()
	assert.NotEqual(t, a, b)
	b.Mirror()
	assert.Equal(t, a, b)

	var m, n Material
	m.Refresh([]uint16{1, 2, 3}, []uint16{4, 5, 6})
	n = m
	n.Mirror()
	n.Mirror()
	assert.Equal(t, m, n)
}

func TestMaterialEvaluationIsSymmetric(t *testing.T) {
	var m Material
	m.Refresh([]uint16{64, 128}, []uint16{192, 256})

	flipped := m
	flipped.Mirror()

	for phase := 0; phase < Phases; phase++ {
		assert.Equal(t, m.Evaluate(phase), -flipped.Evaluate(phase))
	}
}

func TestStartPositionMaterialIsBalanced(t *testing.T) {
	pos, err := chess.ParseFEN(chess.InitialFEN)
	require.NoError(t, err)

	e := NewEvaluator(pos)
	assert.Equal(t, Value(0), e.MaterialValue())
}

func TestEvaluatorPlayMatchesRefresh(t *testing.T) {
	pos, err := chess.ParseFEN(chess.InitialFEN)
	require.NoError(t, err)
	e := NewEvaluator(pos)

	// A line covering captures, castling and an en passant setup.
	line := []string{"e2e4", "d7d5", "e4d5", "g8f6", "f1b5", "c7c6", "d5c6", "b7c6", "g1f3", "c6b5", "e1g1"}
	for _, str := range line {
		candidate, err := chess.ParseMove(str)
		require.NoError(t, err)
		m, ok := e.Position().Find(candidate)
		require.True(t, ok, "move %v in %v", str, e.Position().FEN())

		e.Play(m)

		fresh := NewEvaluator(e.Position().Clone())
		assert.Equal(t, fresh.MaterialValue(), e.MaterialValue(), "after %v", str)
		assert.Equal(t, fresh.PositionalValue(), e.PositionalValue(), "after %v", str)
	}
}

func TestEvaluatorPlayEnPassant(t *testing.T) {
	pos, err := chess.ParseFEN("8/8/8/8/1k1PpN2/8/8/4K3 b - d3 0 1")
	require.NoError(t, err)
	e := NewEvaluator(pos)

	candidate, err := chess.ParseMove("e4d3")
	require.NoError(t, err)
	m, ok := e.Position().Find(candidate)
	require.True(t, ok)

	e.Play(m)

	fresh := NewEvaluator(e.Position().Clone())
	assert.Equal(t, fresh.MaterialValue(), e.MaterialValue())
	assert.Equal(t, fresh.PositionalValue(), e.PositionalValue())
}

func TestEvaluatorPlayPromotion(t *testing.T) {
	pos, err := chess.ParseFEN("8/P6k/8/8/8/8/7K/8 w - - 0 1")
	require.NoError(t, err)
	e := NewEvaluator(pos)

	candidate, err := chess.ParseMove("a7a8q")
	require.NoError(t, err)
	m, ok := e.Position().Find(candidate)
	require.True(t, ok)

	e.Play(m)

	fresh := NewEvaluator(e.Position().Clone())
	assert.Equal(t, fresh.MaterialValue(), e.MaterialValue())
	assert.Equal(t, fresh.PositionalValue(), e.PositionalValue())
}

func TestEvaluatorPassMirrors(t *testing.T) {
	pos, err := chess.ParseFEN(chess.InitialFEN)
	require.NoError(t, err)
	e := NewEvaluator(pos)

	require.NoError(t, e.Pass())

	fresh := NewEvaluator(e.Position().Clone())
	assert.Equal(t, fresh.MaterialValue(), e.MaterialValue())
	assert.Equal(t, fresh.PositionalValue(), e.PositionalValue())
}

func TestEvaluatorCloneIsIndependent(t *testing.T) {
	pos, err := chess.ParseFEN(chess.InitialFEN)
	require.NoError(t, err)
	e := NewEvaluator(pos)

	clone := e.Clone()
	candidate, err := chess.ParseMove("e2e4")
	require.NoError(t, err)
	m, ok := clone.Position().Find(candidate)
	require.True(t, ok)
	clone.Play(m)

	assert.Equal(t, chess.White, e.Position().Turn())
	assert.Equal(t, chess.Black, clone.Position().Turn())
}

func TestSeeStaysWithinBounds(t *testing.T) {
	// A rook hangs on d5, attacked by the queen.
	pos, err := chess.ParseFEN("3k4/8/8/3r4/8/8/3Q4/3K4 w - - 0 1")
	require.NoError(t, err)
	e := NewEvaluator(pos)

	alpha, beta := Value(-500), Value(500)
	v := e.Clone().See(chess.D5, alpha, beta)
	assert.GreaterOrEqual(t, v, alpha)
	assert.LessOrEqual(t, v, beta)
}

func TestValueSaturates(t *testing.T) {
	assert.Equal(t, ValueUpper, SaturateValue(1<<20))
	assert.Equal(t, ValueLower, SaturateValue(-(1 << 20)))
	assert.Equal(t, ValueUpper, ValueUpper.Add(1))
	assert.Equal(t, ValueLower, ValueLower.Sub(1))
	assert.Equal(t, ValueUpper, ValueLower.Negate())
}
