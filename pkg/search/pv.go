package search

import (
	"fmt"
	"time"

	"github.com/vesperchess/vesper/pkg/chess"
)

// PV is a partial search result: the score reached and the best move at the
// node, if any.
type PV struct {
	Score Score
	Move  chess.Move // chess.MoveNone if none
}

// cons prepends a move to a child result, negating the score into the
// parent's point of view.
func cons(m chess.Move, child PV) PV {
	return PV{Score: child.Score.Negate(), Move: m}
}

// Max returns the larger of the two results by score. On equal scores the
// receiver wins.
func (pv PV) Max(o PV) PV {
	if o.Score > pv.Score {
		return o
	}
	return pv
}

func (pv PV) String() string {
	if pv.Move == chess.MoveNone {
		return fmt.Sprintf("score=%v", pv.Score)
	}
	return fmt.Sprintf("score=%v move=%v", pv.Score, pv.Move)
}

// Result is the outcome of one completed search depth.
type Result struct {
	Depth Depth
	PV    PV
	Nodes uint64
	Time  time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("depth=%v %v nodes=%v time=%v", r.Depth, r.PV, r.Nodes, r.Time)
}
