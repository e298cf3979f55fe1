// Package engine encapsulates game-playing logic: the current game state,
// engine options, and the search lifecycle.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/nnue"
	"github.com/vesperchess/vesper/pkg/search"
)

var version = build.NewVersion(0, 3, 0)

// Options are engine configuration options.
type Options struct {
	// Hash is the transposition table size in MiB.
	Hash uint
	// Threads is the search worker pool size.
	Threads uint
}

const (
	DefaultHash    = 16
	MaxHash        = 4096
	DefaultThreads = 1
	MaxThreads     = 256
)

func (o Options) String() string {
	return fmt.Sprintf("{hash=%vMB, threads=%v}", o.Hash, o.Threads)
}

// Engine encapsulates the game state, search and evaluation.
type Engine struct {
	name, author string

	opts   Options
	search *search.PVS

	pos    *chess.Position
	active *handle
	mu     sync.Mutex
}

// New constructs an engine with the given options at the initial position.
func New(ctx context.Context, name, author string, opts Options) *Engine {
	if opts.Hash == 0 {
		opts.Hash = DefaultHash
	}
	if opts.Threads == 0 {
		opts.Threads = DefaultThreads
	}

	pos, _ := chess.ParseFEN(chess.InitialFEN)
	e := &Engine{
		name:   name,
		author: author,
		opts:   opts,
		search: search.New(uint64(opts.Hash)<<20, int(opts.Threads)),
		pos:    pos,
	}

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

// Options returns the current options.
func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts
}

// SetHash resizes the transposition table. The worker pool carries over.
func (e *Engine) SetHash(ctx context.Context, mib uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mib < 1 || mib > MaxHash {
		return fmt.Errorf("hash size out of range: %v", mib)
	}

	e.haltIfActive(ctx)
	e.opts.Hash = mib
	e.search = search.New(uint64(mib)<<20, int(e.opts.Threads))

	logw.Infof(ctx, "Resized transposition table: %vMB", mib)
	return nil
}

// SetThreads reconfigures the worker pool. The transposition table is
// reallocated.
func (e *Engine) SetThreads(ctx context.Context, threads uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if threads < 1 || threads > MaxThreads {
		return fmt.Errorf("thread count out of range: %v", threads)
	}

	e.haltIfActive(ctx)
	e.opts.Threads = threads
	e.search = search.New(uint64(e.opts.Hash)<<20, int(threads))

	logw.Infof(ctx, "Resized worker pool: %v threads", threads)
	return nil
}

// NewGame clears all search state for a fresh game.
func (e *Engine) NewGame(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)
	e.search.Clear()

	logw.Infof(ctx, "New game")
}

// Reset resets the engine to a new starting position in FEN format.
func (e *Engine) Reset(ctx context.Context, fen string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)

	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return err
	}
	e.pos = pos

	logw.Infof(ctx, "Reset %v", pos)
	return nil
}

// Move plays the given move in coordinate notation, usually an opponent move.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActive(ctx)

	candidate, err := chess.ParseMove(move)
	if err != nil {
		return err
	}
	m, ok := e.pos.Find(candidate)
	if !ok {
		return fmt.Errorf("illegal move: %v", candidate)
	}

	e.pos.Play(m)
	logw.Infof(ctx, "Move %v: %v", m, e.pos)
	return nil
}

// Position returns the current position in FEN format.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pos.FEN()
}

// Outcome adjudicates the current position.
func (e *Engine) Outcome() chess.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.pos.Outcome()
}

// Evaluate returns the static material, positional and combined evaluation of
// the current position, for the side to move.
func (e *Engine) Evaluate() (nnue.Value, nnue.Value, nnue.Value) {
	e.mu.Lock()
	defer e.mu.Unlock()

	eval := nnue.NewEvaluator(e.pos.Clone())
	return eval.MaterialValue(), eval.PositionalValue(), eval.Evaluate()
}

// Analyze searches the current position within the given limits. It returns a
// channel of iteratively deeper results; the channel is closed when the
// search is exhausted or halted.
func (e *Engine) Analyze(ctx context.Context, limits search.Limits) (<-chan search.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, fmt.Errorf("search already active")
	}

	logw.Infof(ctx, "Analyze %v, limits=%v", e.pos, limits)

	h, out := launch(ctx, e.search, nnue.NewEvaluator(e.pos.Clone()), limits)
	e.active = h
	return out, nil
}

// Halt halts the active search, if any, and returns the best result so far.
func (e *Engine) Halt(ctx context.Context) (search.Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.haltIfActive(ctx)
}

func (e *Engine) haltIfActive(ctx context.Context) (search.Result, bool) {
	if e.active == nil {
		return search.Result{}, false
	}

	result := e.active.Halt()
	logw.Infof(ctx, "Search halted: %v", result)

	e.active = nil
	return result, true
}
