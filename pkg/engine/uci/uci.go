// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
// See: https://en.wikipedia.org/wiki/Universal_Chess_Interface
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"go.uber.org/atomic"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/engine"
	"github.com/vesperchess/vesper/pkg/search"
)

// ProtocolName is the initial command selecting this protocol.
const ProtocolName = "uci"

// Driver implements a UCI driver for an engine. It is activated if sent
// "uci".
type Driver struct {
	e *engine.Engine

	out chan<- string

	active       atomic.Bool        // user is waiting for engine to move
	results      chan search.Result // intermediate search information
	lastPosition string             // last position line (empty if none)

	quit   chan struct{}
	closed atomic.Bool
}

// NewDriver constructs and starts a driver processing the given input lines.
func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:       e,
		out:     out,
		results: make(chan search.Result, 400),
		quit:    make(chan struct{}),
	}
	go d.process(ctx, in)

	return d, out
}

// Close closes the driver. Idempotent.
func (d *Driver) Close() {
	if d.closed.CompareAndSwap(false, true) {
		close(d.quit)
	}
}

// Closed returns a channel that is closed when the driver exits.
func (d *Driver) Closed() <-chan struct{} {
	return d.quit
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	// After receiving "uci", the engine must identify itself and list its
	// options, then acknowledge with "uciok".

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- fmt.Sprintf("option name Hash type spin default %v min 1 max %v", engine.DefaultHash, engine.MaxHash)
	d.out <- fmt.Sprintf("option name Threads type spin default %v min 1 max %v", engine.DefaultThreads, engine.MaxThreads)
	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream broken. Exiting")
				return
			}

			parts := strings.Fields(line)
			if len(parts) == 0 {
				break
			}

			cmd, args := parts[0], parts[1:]
			switch strings.ToLower(cmd) {
			case "isready":
				// "isready" synchronizes the engine with the GUI and must
				// always be answered with "readyok", even while searching.

				d.out <- "readyok"

			case "setoption":
				// "setoption name <id> [value <x>]". Out-of-range values are
				// reported as warnings and ignored; the engine stays alive.

				d.setOption(ctx, args)

			case "ucinewgame":
				// The next search will be from a different game: clear all
				// cached state.

				d.ensureInactive(ctx)
				d.e.NewGame(ctx)
				d.lastPosition = ""

			case "position":
				// "position [fen <fenstring> | startpos] moves <m1> ... <mi>".
				// A line extending the previous game is applied incrementally.

				d.ensureInactive(ctx)
				if err := d.setPosition(ctx, line, args); err != nil {
					logw.Warningf(ctx, "Invalid position %q: %v", line, err)
					d.lastPosition = ""
				}

			case "go":
				// Start calculating on the current position. Limits arrive as
				// arguments; absent limits mean an unbounded search.

				d.ensureInactive(ctx)
				d.handleGo(ctx, args)

			case "stop":
				// Stop calculating as soon as possible, then report the best
				// move found.

				if result, ok := d.e.Halt(ctx); ok {
					d.searchCompleted(ctx, result)
				}

			case "eval":
				material, positional, total := d.e.Evaluate()
				d.out <- fmt.Sprintf("info string evaluation material %v positional %v total %v (cp, side to move)", material, positional, total)

			case "quit":
				// Quit the program as soon as possible. No bestmove is owed
				// for a search aborted this way.

				d.active.Store(false)
				_, _ = d.e.Halt(ctx)
				return

			default:
				logw.Warningf(ctx, "Unknown command %q: %v", cmd, args)
			}

		case r := <-d.results:
			if d.active.Load() {
				d.out <- printInfo(r)
			}

		case <-d.quit:
			d.ensureInactive(ctx)

			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

func (d *Driver) ensureInactive(ctx context.Context) {
	d.active.Store(false)
	_, _ = d.e.Halt(ctx)
}

func (d *Driver) setOption(ctx context.Context, args []string) {
	var name, value string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "name":
			name = args[i+1]
		case "value":
			value = args[i+1]
		}
	}

	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		logw.Warningf(ctx, "Invalid value for option %v: %q", name, value)
		return
	}

	switch strings.ToLower(name) {
	case "hash":
		err = d.e.SetHash(ctx, uint(n))
	case "threads":
		err = d.e.SetThreads(ctx, uint(n))
	default:
		logw.Warningf(ctx, "Unknown option: %q", name)
		return
	}
	if err != nil {
		logw.Warningf(ctx, "Rejected option %v=%v: %v", name, value, err)
	}
}

func (d *Driver) setPosition(ctx context.Context, line string, args []string) error {
	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		// Continuation of the current game: apply the new moves only.

		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(moves) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				return err
			}
		}

		d.lastPosition = line
		return nil
	}

	// New position.

	position := chess.InitialFEN
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
	} else if len(args) > 0 && args[0] == "fen" {
		return fmt.Errorf("incomplete fen")
	}

	if err := d.e.Reset(ctx, position); err != nil {
		return err
	}

	apply := false
	for _, arg := range args {
		if arg == "moves" {
			apply = true
			continue
		}
		if !apply {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			return err
		}
	}

	d.lastPosition = line
	return nil
}

func (d *Driver) handleGo(ctx context.Context, args []string) {
	var limits search.Limits
	var wtime, btime, winc, binc time.Duration
	infinite := false

	for i := 0; i < len(args); i++ {
		switch cmd := args[i]; cmd {
		case "wtime", "btime", "winc", "binc", "depth", "nodes", "movetime":
			// Next argument is an int.

			i++
			if i == len(args) {
				logw.Warningf(ctx, "No argument for %v", cmd)
				return
			}
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				logw.Warningf(ctx, "Invalid argument for %v: %v", cmd, err)
				return
			}

			switch cmd {
			case "depth":
				limits.Depth = lang.Some(search.SaturateDepth(int(n)))
			case "nodes":
				limits.Nodes = lang.Some(n)
			case "movetime":
				limits.MoveTime = lang.Some(time.Duration(n) * time.Millisecond)
			case "wtime":
				wtime = time.Duration(n) * time.Millisecond
			case "btime":
				btime = time.Duration(n) * time.Millisecond
			case "winc":
				winc = time.Duration(n) * time.Millisecond
			case "binc":
				binc = time.Duration(n) * time.Millisecond
			}

		case "infinite":
			infinite = true

		default:
			// silently ignore anything not handled.
		}
	}

	if wtime > 0 || btime > 0 {
		clock := search.Clock{Time: wtime, Increment: winc}
		if strings.Fields(d.e.Position())[1] == "b" {
			clock = search.Clock{Time: btime, Increment: binc}
		}
		limits.Clock = lang.Some(clock)
	}

	out, err := d.e.Analyze(ctx, limits)
	if err != nil {
		logw.Warningf(ctx, "Analyze failed: %v", err)
		return
	}
	d.active.Store(true)

	// Forward intermediate results. Complete the search when it ends on its
	// own, unless infinite: then a "stop" is required.

	go func() {
		var last search.Result
		for r := range out {
			last = r
			d.results <- r
		}
		if !infinite {
			if result, ok := d.e.Halt(ctx); ok {
				last = result
			}
			d.searchCompleted(ctx, last)
		}
	}()
}

// searchCompleted emits the final info and bestmove lines. Exactly one
// bestmove is sent per completed go.
func (d *Driver) searchCompleted(ctx context.Context, r search.Result) {
	if d.active.CompareAndSwap(true, false) {
		d.out <- printInfo(r)
		if r.PV.Move != chess.MoveNone {
			d.out <- fmt.Sprintf("bestmove %v", r.PV.Move)
		} else {
			// No PV: the position is checkmate or stalemate.
			d.out <- "bestmove 0000"
		}
	} // else: stale or duplicate result
}

func printInfo(r search.Result) string {
	parts := []string{"info"}
	parts = append(parts, fmt.Sprintf("depth %v", r.Depth))
	if plies, ok := r.PV.Score.Mate(); ok {
		parts = append(parts, fmt.Sprintf("score mate %v", mateMoves(plies)))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %v", int(r.PV.Score)))
	}
	if r.Nodes > 0 {
		parts = append(parts, fmt.Sprintf("nodes %v", r.Nodes))
	}
	if r.Time > 0 {
		parts = append(parts, fmt.Sprintf("time %v", r.Time.Milliseconds()))
	}
	if r.Nodes > 0 && r.Time > 0 {
		parts = append(parts, fmt.Sprintf("nps %v", uint64(time.Second)*r.Nodes/uint64(r.Time)))
	}
	if r.PV.Move != chess.MoveNone {
		parts = append(parts, fmt.Sprintf("pv %v", r.PV.Move))
	}

	return strings.Join(parts, " ")
}

// mateMoves converts plies-to-mate into full moves, negative when the engine
// is being mated.
func mateMoves(plies search.Ply) int {
	if plies > 0 {
		return int(plies+1) / 2
	}
	return -int(1-plies) / 2
}
