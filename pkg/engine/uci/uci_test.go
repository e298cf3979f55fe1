package uci

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesperchess/vesper/pkg/engine"
)

type harness struct {
	in  chan string
	out <-chan string
	d   *Driver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	e := engine.New(ctx, "vesper", "test", engine.Options{Hash: 1, Threads: 1})
	in := make(chan string, 16)
	d, out := NewDriver(ctx, e, in)
	t.Cleanup(d.Close)

	return &harness{in: in, out: out, d: d}
}

// expect reads output lines until one matches the prefix, or fails after the
// timeout.
func (h *harness) expect(t *testing.T, prefix string) string {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case line, ok := <-h.out:
			require.True(t, ok, "output closed while waiting for %q", prefix)
			if strings.HasPrefix(line, prefix) {
				return line
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", prefix)
		}
	}
}

func TestDriverHandshake(t *testing.T) {
	h := newHarness(t)

	h.expect(t, "id name")
	h.expect(t, "id author")
	h.expect(t, "option name Hash type spin")
	h.expect(t, "option name Threads type spin")
	h.expect(t, "uciok")

	h.in <- "isready"
	h.expect(t, "readyok")
}

func TestDriverGoDepthEmitsBestmove(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "position startpos moves e2e4 e7e5"
	h.in <- "go depth 2"

	h.expect(t, "info depth")
	line := h.expect(t, "bestmove")
	parts := strings.Fields(line)
	require.Len(t, parts, 2)
	assert.Len(t, parts[1], 4)
}

func TestDriverFindsMateInOne(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "position fen r1b1kbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 4 4"
	h.in <- "go depth 2"

	info := h.expect(t, "bestmove")
	assert.Equal(t, "bestmove f3f7", info)
}

func TestDriverStalemate(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "position fen 7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	h.in <- "go depth 1"

	info := h.expect(t, "info depth")
	assert.Contains(t, info, "score cp 0")
	assert.Equal(t, "bestmove 0000", h.expect(t, "bestmove"))
}

func TestDriverStop(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "position startpos"
	h.in <- "go infinite"

	// Give the search a moment, then stop it.
	time.Sleep(50 * time.Millisecond)
	h.in <- "stop"

	h.expect(t, "bestmove")
}

func TestDriverSetOption(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	// Valid and invalid values; the engine must stay alive either way.
	h.in <- "setoption name Hash value 8"
	h.in <- "setoption name Hash value 1000000"
	h.in <- "setoption name Threads value 2"
	h.in <- "setoption name Bogus value 1"

	h.in <- "isready"
	h.expect(t, "readyok")
}

func TestDriverEval(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "position startpos"
	h.in <- "eval"

	line := h.expect(t, "info string evaluation")
	assert.Contains(t, line, "material")
	assert.Contains(t, line, "positional")
	assert.Contains(t, line, "total")
}

func TestDriverUnknownCommandIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "frobnicate"
	h.in <- "isready"
	h.expect(t, "readyok")
}

func TestDriverQuit(t *testing.T) {
	h := newHarness(t)
	h.expect(t, "uciok")

	h.in <- "quit"

	select {
	case <-h.d.Closed():
	case <-time.After(10 * time.Second):
		t.Fatal("driver did not close on quit")
	}
}
