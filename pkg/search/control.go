package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"go.uber.org/atomic"

	"github.com/vesperchess/vesper/pkg/util"
)

// ErrInterrupted indicates the search hit its time or node budget, or was
// halted. It propagates through every recursive level without writing
// transposition entries for the aborted subtree and never surfaces to the
// user.
var ErrInterrupted = errors.New("search interrupted")

// Clock is a remaining time plus increment pair for timed games.
type Clock struct {
	Time, Increment time.Duration
}

func (c Clock) String() string {
	return fmt.Sprintf("%.1f+%.1f", c.Time.Seconds(), c.Increment.Seconds())
}

// Limits hold the dynamic budgets of one search. Absent fields mean
// unlimited.
type Limits struct {
	// Depth, if set, limits the search to the given nominal depth.
	Depth lang.Optional[Depth]
	// Nodes, if set, limits the search to the given number of visited nodes.
	Nodes lang.Optional[int64]
	// MoveTime, if set, fixes the time spent on this move.
	MoveTime lang.Optional[time.Duration]
	// Clock, if set, derives the time budget from the game clock.
	Clock lang.Optional[Clock]
}

func (l Limits) String() string {
	var ret []string
	if v, ok := l.Depth.V(); ok {
		ret = append(ret, fmt.Sprintf("depth=%v", v))
	}
	if v, ok := l.Nodes.V(); ok {
		ret = append(ret, fmt.Sprintf("nodes=%v", v))
	}
	if v, ok := l.MoveTime.V(); ok {
		ret = append(ret, fmt.Sprintf("movetime=%v", v))
	}
	if v, ok := l.Clock.V(); ok {
		ret = append(ret, fmt.Sprintf("clock=%v", v))
	}
	if len(ret) == 0 {
		return "[unlimited]"
	}
	return fmt.Sprintf("[%v]", strings.Join(ret, ", "))
}

// Control owns the interrupt plumbing of one search run: an optional node
// counter, an optional deadline timer, and the halt signal from the caller.
// It is shared by reference among all worker threads.
type Control struct {
	ctx     context.Context
	nodes   *util.Counter
	timer   *util.Timer
	visited atomic.Uint64
}

// newControl returns a control for the given budgets. A nil counter or timer
// is unlimited.
func newControl(ctx context.Context, nodes *util.Counter, timer *util.Timer) *Control {
	return &Control{ctx: ctx, nodes: nodes, timer: timer}
}

// unlimited returns a control that only honors the caller's halt signal.
func unlimited(ctx context.Context) *Control {
	return newControl(ctx, nil, nil)
}

// Interrupted checks the budgets. Called exactly once per visited node.
func (c *Control) Interrupted() error {
	c.visited.Inc()

	if c.nodes != nil && !c.nodes.Count() {
		return ErrInterrupted
	}
	if c.timer != nil {
		if _, ok := c.timer.Remaining(); !ok {
			return ErrInterrupted
		}
	}
	if contextx.IsCancelled(c.ctx) {
		return ErrInterrupted
	}
	return nil
}

// Visited returns the number of nodes visited so far.
func (c *Control) Visited() uint64 {
	return c.visited.Load()
}
