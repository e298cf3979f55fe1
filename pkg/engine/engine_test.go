package engine

import (
	"context"
	"testing"

	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/search"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(context.Background(), "vesper", "test", Options{Hash: 1, Threads: 1})
}

func TestEngineStartsAtInitialPosition(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, chess.InitialFEN, e.Position())
}

func TestEngineResetAndMove(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Move(ctx, "e2e4"))
	require.NoError(t, e.Move(ctx, "e7e5"))
	assert.Equal(t, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2", e.Position())

	assert.Error(t, e.Move(ctx, "e4e6"), "illegal move rejected")
	assert.Error(t, e.Move(ctx, "zzzz"), "malformed move rejected")

	require.NoError(t, e.Reset(ctx, chess.InitialFEN))
	assert.Equal(t, chess.InitialFEN, e.Position())

	assert.Error(t, e.Reset(ctx, "not a fen"))
}

func TestEngineOptionRanges(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	assert.Error(t, e.SetHash(ctx, 0))
	assert.Error(t, e.SetHash(ctx, MaxHash+1))
	assert.NoError(t, e.SetHash(ctx, 8))

	assert.Error(t, e.SetThreads(ctx, 0))
	assert.Error(t, e.SetThreads(ctx, MaxThreads+1))
	assert.NoError(t, e.SetThreads(ctx, 2))

	opts := e.Options()
	assert.Equal(t, uint(8), opts.Hash)
	assert.Equal(t, uint(2), opts.Threads)
}

func TestEngineAnalyze(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	out, err := e.Analyze(ctx, search.Limits{Depth: lang.Some(search.Depth(2))})
	require.NoError(t, err)

	var last search.Result
	for r := range out {
		last = r
	}
	require.NotEqual(t, chess.MoveNone, last.PV.Move)

	_, halted := e.Halt(ctx)
	assert.True(t, halted)
}

func TestEngineRejectsConcurrentAnalyze(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Analyze(ctx, search.Limits{})
	require.NoError(t, err)

	_, err = e.Analyze(ctx, search.Limits{})
	assert.Error(t, err)

	_, halted := e.Halt(ctx)
	assert.True(t, halted)
}

func TestEngineHaltWithoutSearch(t *testing.T) {
	e := newTestEngine(t)
	_, halted := e.Halt(context.Background())
	assert.False(t, halted)
}

func TestEngineEvaluate(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	material, _, _ := e.Evaluate()
	assert.Equal(t, 0, int(material), "start position is balanced")

	// A queen-odds position favors the side to move.
	require.NoError(t, e.Reset(ctx, "rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"))
	material, _, total := e.Evaluate()
	assert.Greater(t, int(material), 500)
	assert.Greater(t, int(total), 300)
}
