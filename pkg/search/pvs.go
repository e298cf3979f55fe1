package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/seekerror/logw"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/nnue"
	"github.com/vesperchess/vesper/pkg/util"
)

// PVS implements principal variation search over incrementally evaluated
// positions: alpha-beta with a transposition table, killer moves, null-move
// and late-move pruning, quiescence beyond the horizon, and a parallel move
// driver at interior nodes. Thread-safe for a single search at a time.
//
// See: https://www.chessprogramming.org/Principal_Variation_Search.
type PVS struct {
	driver  *Driver
	tt      *Table
	killers *Killers
}

// New constructs a searcher with a transposition table of at most the given
// number of bytes and the given number of worker threads.
func New(hash uint64, threads int) *PVS {
	return &PVS{
		driver:  NewDriver(threads),
		tt:      NewTable(hash),
		killers: &Killers{},
	}
}

// Table returns the transposition table.
func (s *PVS) Table() *Table {
	return s.tt
}

// Clear resets the transposition table and the killer moves.
func (s *PVS) Clear() {
	s.tt.Clear()
	s.killers.Clear()
}

// Clear resets all killer slots.
func (ks *Killers) Clear() {
	for ply := range ks.slots {
		for side := range ks.slots[ply] {
			ks.slots[ply][side].Store(0)
		}
	}
}

// record finishes a node: it writes exactly one transposition entry and, for
// a quiet cutoff move, a killer.
func (s *PVS) record(e *nnue.Evaluator, alpha, beta Score, depth Depth, ply Ply, pv PV) PV {
	if pv.Move != chess.MoveNone && pv.Score >= beta && pv.Move.IsQuiet() {
		s.killers.Insert(ply, e.Position().Turn(), pv.Move)
	}

	draft := Draft(depth, ply)
	score := pv.Score.Normalize(-ply)
	switch {
	case pv.Score >= beta:
		s.tt.Set(e.Position().Zobrist(), NewLower(draft, score, pv.Move))
	case pv.Score <= alpha:
		s.tt.Set(e.Position().Zobrist(), NewUpper(draft, score, pv.Move))
	default:
		s.tt.Set(e.Position().Zobrist(), NewExact(draft, score, pv.Move))
	}

	return pv
}

// mdp clamps the window to the mate scores reachable from this ply: one
// cannot mate or be mated in zero plies. Narrows but never inverts.
//
// See: https://www.chessprogramming.org/Mate_Distance_Pruning.
func mdp(ply Ply, alpha, beta Score) (Score, Score) {
	lower := ScoreLower.Normalize(ply)
	upper := (ScoreUpper - 1).Normalize(ply)
	return clamp(alpha, lower, upper), clamp(beta, lower, upper)
}

func clamp(s, lo, hi Score) Score {
	switch {
	case s < lo:
		return lo
	case s > hi:
		return hi
	default:
		return s
	}
}

// nmp yields the reduced depth for a null-move search, if the static
// estimate already refutes beta and the side to move has more than one
// non-pawn piece.
//
// See: https://www.chessprogramming.org/Null_Move_Pruning.
func nmp(e *nnue.Evaluator, guess, beta Score, depth Depth, ply Ply) (Depth, bool) {
	pos := e.Position()
	officers := pos.Pieces(pos.Turn()) &^ pos.ByPiece(chess.Pawn)
	if guess > beta && officers.Count() > 1 {
		return SaturateDepth(int(depth) - 2 - int(Draft(depth, ply))/4), true
	}
	return 0, false
}

// lmp yields the reduced depth for a late quiet move, graded by how far the
// exchange estimate falls below alpha.
//
// See: https://www.chessprogramming.org/Late_Move_Reductions.
func lmp(next *nnue.Evaluator, m chess.Move, alpha nnue.Value, depth Depth, ply Ply) (Depth, bool) {
	see := next.Clone().See(m.Whither(), nnue.Value(60)-alpha, nnue.Value(501)-alpha)

	var r int
	switch gain := int32(alpha) + int32(see); {
	case gain <= 60:
		return 0, false
	case gain <= 180:
		r = 1
	case gain <= 500:
		r = 2
	default:
		r = 3
	}

	return SaturateDepth(int(depth) - r - int(Draft(depth, ply))/4), true
}

// nw is a zero-window search around beta.
//
// See: https://www.chessprogramming.org/Null_Window.
func (s *PVS) nw(e *nnue.Evaluator, beta Score, depth Depth, ply Ply, ctrl *Control) (PV, error) {
	return s.pvs(e, beta-1, beta, depth, ply, ctrl)
}

// pvs searches the window [alpha, beta). Precondition: alpha < beta.
func (s *PVS) pvs(e *nnue.Evaluator, alpha, beta Score, depth Depth, ply Ply, ctrl *Control) (PV, error) {
	if alpha >= beta {
		panic(fmt.Sprintf("empty window: [%v, %v)", alpha, beta))
	}

	if err := ctrl.Interrupted(); err != nil {
		return PV{}, err
	}

	pos := e.Position()
	var inCheck bool
	switch pos.Outcome() {
	case chess.OutcomeDrawn:
		return PV{Score: 0}, nil
	case chess.OutcomeDecisive:
		return PV{Score: ScoreLower.Normalize(ply)}, nil
	default:
		inCheck = pos.IsCheck()
	}

	alpha0, beta0 := alpha, beta
	alpha, beta = mdp(ply, alpha, beta)
	entry, hasEntry := s.tt.Get(pos.Zobrist())
	isPV := alpha+1 < beta

	// The static score estimate: the transposition score when available,
	// else the incremental evaluation.
	var score Score
	if hasEntry {
		score = entry.Score.Normalize(ply)
	} else {
		score = Score(e.Evaluate())
	}

	quiesce := ply >= Ply(depth) && !inCheck
	if quiesce && alpha < score {
		alpha = score // stand pat
	}

	if alpha >= beta {
		return PV{Score: alpha}, nil
	}
	if hasEntry && !isPV && entry.Depth >= Draft(depth, ply) {
		lower, upper := entry.Bounds()
		if lower == upper || upper.Normalize(ply) <= alpha || lower.Normalize(ply) >= beta {
			return PV{Score: score, Move: entry.Move}, nil
		}
	}

	if ply >= MaxPly {
		return PV{Score: score}, nil
	}

	if !isPV && !inCheck {
		if d, ok := nmp(e, score, beta, depth, ply); ok {
			next := e.Clone()
			if err := next.Pass(); err == nil {
				if Ply(d) <= ply {
					return PV{Score: score}, nil
				}
				pv, err := s.nw(next, (-beta)+1, d, ply+1, ctrl)
				if err != nil {
					return PV{}, err
				}
				if pv.Score.Negate() >= beta {
					return PV{Score: score}, nil
				}
			}
		}
	}

	moves := s.rank(e, entry, hasEntry, ply, quiesce)
	if len(moves) == 0 {
		return PV{Score: score}, nil
	}

	// The most promising move is searched first with the full window; the
	// remaining siblings go through the driver with zero windows.

	head := moves[len(moves)-1]
	moves = moves[:len(moves)-1]

	next := e.Clone()
	next.Play(head.move)
	child, err := s.pvs(next, beta.Negate(), alpha.Negate(), depth, ply+1, ctrl)
	if err != nil {
		return PV{}, err
	}
	pv := cons(head.move, child)

	if pv.Score >= beta || len(moves) == 0 {
		return s.record(e, alpha0, beta0, depth, ply, pv), nil
	}

	pv, err = s.driver.Drive(pv, moves, func(best PV, m ranked) (PV, error) {
		alpha := alpha
		switch {
		case best.Score >= beta:
			return PV{}, errBreak
		case best.Score > alpha:
			alpha = best.Score
		}

		next := e.Clone()
		next.Play(m.move)

		if m.gain < 100 && !inCheck && !next.Position().IsCheck() {
			if d, ok := lmp(next, m.move, saturateValue(alpha), depth, ply); ok {
				if Ply(d) <= ply {
					return best, nil
				}
				pv, err := s.nw(next, alpha.Negate(), d, ply+1, ctrl)
				if err != nil {
					return PV{}, err
				}
				if pv.Score.Negate() <= alpha {
					return best, nil
				}
			}
		}

		pv, err := s.nw(next, alpha.Negate(), depth, ply+1, ctrl)
		if err != nil {
			return PV{}, err
		}

		cand := cons(m.move, pv)
		if cand.Score <= alpha || cand.Score >= beta {
			return cand, nil
		}

		child, err := s.pvs(next, beta.Negate(), alpha.Negate(), depth, ply+1, ctrl)
		if err != nil {
			return PV{}, err
		}
		return cons(m.move, child), nil
	})
	if err != nil {
		return PV{}, err
	}

	return s.record(e, alpha0, beta0, depth, ply, pv), nil
}

// rank assigns move-ordering priorities and sorts ascending: the
// transposition move above everything, then killers, then quiet moves, with
// captures graded by material delta.
func (s *PVS) rank(e *nnue.Evaluator, entry Transposition, hasEntry bool, ply Ply, quiesce bool) []ranked {
	pos := e.Position()
	killer := s.killers.Get(ply, pos.Turn())

	var moves []ranked
	for _, m := range pos.Moves() {
		if quiesce && m.IsQuiet() {
			continue
		}

		var gain nnue.Value
		switch {
		case hasEntry && entry.Move.Equals(m):
			gain = nnue.ValueUpper
		case killer.Contains(m):
			gain = 100
		case m.IsQuiet():
			gain = 0
		default:
			mat := e.Material()
			before := mat.Evaluate()
			mat.Play(m)
			gain = mat.Evaluate().Negate().Sub(before)
		}
		moves = append(moves, ranked{move: m, gain: gain})
	}

	sort.SliceStable(moves, func(i, j int) bool {
		return moves[i].gain < moves[j].gain
	})
	return moves
}

func saturateValue(s Score) nnue.Value {
	switch {
	case s > Score(nnue.ValueUpper):
		return nnue.ValueUpper
	case s < Score(nnue.ValueLower):
		return nnue.ValueLower
	default:
		return nnue.Value(s)
	}
}

// Search runs iterative deepening with aspiration windows within the given
// limits and returns the best result found. Report, if set, receives the
// result of every completed depth.
//
// See: https://www.chessprogramming.org/Iterative_Deepening and
// https://www.chessprogramming.org/Aspiration_Windows.
func (s *PVS) Search(ctx context.Context, e *nnue.Evaluator, limits Limits, report func(Result)) Result {
	soft, hard := timeToSearch(e.Position(), limits)

	var counter *util.Counter
	if n, ok := limits.Nodes.V(); ok {
		counter = util.NewCounter(n)
	}
	var timer *util.Timer
	if hard < infiniteTime {
		timer = util.NewTimer(hard)
	}
	ctrl := newControl(ctx, counter, timer)

	depthLimit := MaxDepth
	if d, ok := limits.Depth.V(); ok {
		depthLimit = d
	}

	start := time.Now()
	var pv PV
	var depth Depth

	// Bootstrap on the full window so that even a zero budget yields some
	// move to play.
	for depth <= MaxDepth {
		var err error
		pv, err = s.pvs(e, ScoreLower, ScoreUpper, depth, 0, unlimited(ctx))
		if err != nil {
			return Result{Depth: depth, PV: pv, Nodes: ctrl.Visited(), Time: time.Since(start)}
		}
		depth++
		if pv.Move != chess.MoveNone || depth > depthLimit {
			break
		}
	}

	best := Result{Depth: depth - 1, PV: pv, Nodes: ctrl.Visited(), Time: time.Since(start)}
	if report != nil {
		report(best)
	}

	for d := depth; d <= depthLimit; d++ {
		if timer != nil {
			if left, ok := timer.Remaining(); !ok || left < hard-soft {
				break
			}
		}

		window := Score(32)
		lo := pv.Score.Sub(window / 2)
		if hi := ScoreUpper.Sub(window); lo > hi {
			lo = hi
		}
		hi := pv.Score.Add(window / 2)
		if min := ScoreLower.Add(window); hi < min {
			hi = min
		}

		accepted := false
		for !accepted {
			partial, err := s.pvs(e, lo, hi, d, 0, ctrl)
			if err != nil {
				logw.Debugf(ctx, "Search interrupted at depth=%v", d)
				return best
			}

			window = window.Add(window)
			switch {
			case partial.Score <= lo && lo > ScoreLower:
				lo = partial.Score.Sub(window / 2)
			case partial.Score >= hi && hi < ScoreUpper:
				hi = partial.Score.Add(window / 2)
			default:
				pv = partial
				accepted = true
			}
		}

		best = Result{Depth: d, PV: pv, Nodes: ctrl.Visited(), Time: time.Since(start)}
		if report != nil {
			report(best)
		}
	}

	return best
}

const infiniteTime = time.Duration(1<<63 - 1)

// timeToSearch converts the limits into a soft and hard time budget. For
// timed games the hard budget is the increment plus a fullmove-scaled slice
// of the excess clock, capped at 80% of the clock; the soft budget is half
// of it.
func timeToSearch(pos *chess.Position, limits Limits) (time.Duration, time.Duration) {
	if t, ok := limits.MoveTime.V(); ok {
		return t, t
	}
	c, ok := limits.Clock.V()
	if !ok {
		return infiniteTime, infiniteTime
	}

	cap := time.Duration(float64(c.Time) * 0.8)
	excess := c.Time - c.Increment
	if excess < 0 {
		excess = 0
	}
	moves := pos.Fullmoves()
	if moves > 40 {
		moves = 40
	}
	scale := 400 / moves

	hard := c.Increment + excess/time.Duration(scale)
	if hard > cap {
		hard = cap
	}
	return hard / 2, hard
}
