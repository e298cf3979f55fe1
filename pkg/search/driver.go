package search

import (
	"errors"
	"math"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/nnue"
	"github.com/vesperchess/vesper/pkg/util"
)

// errBreak exits the move loop early while keeping the current best. It never
// escapes the driver.
var errBreak = errors.New("break")

// ranked is a move with its ordering priority. The caller sorts ascending, so
// the best candidate sits last and is processed first.
type ranked struct {
	move chess.Move
	gain nnue.Value
}

// Driver distributes the sibling moves of a node across worker threads with a
// shared cutoff. Writes to the shared best are lock-free and monotonic; ties
// on score are broken by move-list index so that the aggregate maximum is
// deterministic.
type Driver struct {
	threads int
}

// NewDriver constructs a driver for the given number of threads.
func NewDriver(threads int) *Driver {
	if threads < 1 {
		threads = 1
	}
	return &Driver{threads: threads}
}

// Threads returns the worker pool size.
func (d *Driver) Threads() int {
	return d.threads
}

// Drive folds f over the moves in reverse order, starting from best. Every
// call receives the current best; f returns the new candidate, errBreak to
// stop cleanly, or ErrInterrupted to abort.
func (d *Driver) Drive(best PV, moves []ranked, f func(best PV, m ranked) (PV, error)) (PV, error) {
	if d.threads == 1 {
		return d.sequential(best, moves, f)
	}
	return d.parallel(best, moves, f)
}

func (d *Driver) sequential(best PV, moves []ranked, f func(best PV, m ranked) (PV, error)) (PV, error) {
	for i := len(moves) - 1; i >= 0; i-- {
		pv, err := f(best, moves[i])
		switch err {
		case nil:
			best = best.Max(pv)
		case errBreak:
			return best, nil
		default:
			return PV{}, err
		}
	}
	return best, nil
}

func (d *Driver) parallel(best PV, moves []ranked, f func(best PV, m ranked) (PV, error)) (PV, error) {
	shared := atomic.NewUint64(encodeIndexed(best, math.MaxUint32))
	stop := atomic.NewBool(false)
	next := atomic.NewInt64(int64(len(moves)))

	var g errgroup.Group
	workers := d.threads
	if workers > len(moves) {
		workers = len(moves)
	}

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := next.Dec()
				if i < 0 || stop.Load() {
					return nil
				}

				cur, _ := decodeIndexed(shared.Load())
				pv, err := f(cur, moves[i])
				switch err {
				case nil:
					fetchMax(shared, encodeIndexed(pv, uint32(i)))
				case errBreak:
					stop.Store(true)
					return nil
				default:
					stop.Store(true)
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return PV{}, err
	}

	// The word only carries the wire move; restore the full move, with its
	// context bits, by matching against the candidates.
	pv, _ := decodeIndexed(shared.Load())
	if pv.Score == best.Score && pv.Move.Equals(best.Move) {
		return best, nil
	}
	for i := range moves {
		if moves[i].move.Equals(pv.Move) {
			pv.Move = moves[i].move
			break
		}
	}
	return pv, nil
}

// The shared best is one word ordered lexicographically by (score, index):
//
//	bits 47-60  score
//	bits 15-46  move-list index
//	bits  0-14  move
//
// A later-in-sorted-order move wins score ties; the initial best carries the
// maximum index so discoveries must strictly improve on ties.
func encodeIndexed(pv PV, idx uint32) uint64 {
	bits := util.Bits(0).
		Push(uint64(pv.Score.Encode()), 14).
		Push(uint64(idx), 32).
		Push(uint64(pv.Move.Encode()), 15)
	return uint64(bits)
}

func decodeIndexed(word uint64) (PV, uint32) {
	bits := util.Bits(word)
	bits, move := bits.Pop(15)
	bits, idx := bits.Pop(32)
	_, score := bits.Pop(14)
	return PV{Score: DecodeScore(score), Move: chess.DecodeMove(util.Bits(move))}, uint32(idx)
}

func fetchMax(u *atomic.Uint64, v uint64) {
	for {
		old := u.Load()
		if old >= v || u.CompareAndSwap(old, v) {
			return
		}
	}
}
