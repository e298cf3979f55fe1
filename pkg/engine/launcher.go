package engine

import (
	"context"
	"sync"

	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"

	"github.com/vesperchess/vesper/pkg/nnue"
	"github.com/vesperchess/vesper/pkg/search"
)

// handle manages one running search. The engine spins off searches on cloned
// evaluators and closes or abandons them when no longer needed; this keeps
// stopping conditions and re-synchronization trivial.
type handle struct {
	init, quit iox.AsyncCloser

	result search.Result
	mu     sync.Mutex
}

// launch starts the search and returns its handle and result channel. The
// channel carries the result of each completed depth and is closed when the
// search ends.
func launch(ctx context.Context, s *search.PVS, e *nnue.Evaluator, limits search.Limits) (*handle, <-chan search.Result) {
	out := make(chan search.Result, 1)
	h := &handle{
		init: iox.NewAsyncCloser(),
		quit: iox.NewAsyncCloser(),
	}
	go h.process(ctx, s, e, limits, out)

	return h, out
}

func (h *handle) process(ctx context.Context, s *search.PVS, e *nnue.Evaluator, limits search.Limits, out chan search.Result) {
	defer h.init.Close()
	defer close(out)

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	final := s.Search(wctx, e, limits, func(r search.Result) {
		h.mu.Lock()
		h.result = r
		h.mu.Unlock()

		// Drop the stale result, if not yet consumed.
		select {
		case <-out:
		default:
		}
		out <- r

		h.init.Close()
	})

	h.mu.Lock()
	h.result = final
	h.mu.Unlock()
}

// Halt halts the search, if running, and returns the best result. Idempotent.
func (h *handle) Halt() search.Result {
	<-h.init.Closed()
	h.quit.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.result
}
