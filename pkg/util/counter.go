package util

import "go.uber.org/atomic"

// Counter is a countdown shared by reference among search threads. Each
// visited node consumes one tick; exhaustion signals an interrupt.
type Counter struct {
	left atomic.Int64
}

// NewCounter returns a counter with the given budget.
func NewCounter(n int64) *Counter {
	c := &Counter{}
	c.left.Store(n)
	return c
}

// Count consumes one tick. Returns false iff the budget is exhausted.
func (c *Counter) Count() bool {
	return c.left.Dec() >= 0
}

// Remaining returns the number of ticks left.
func (c *Counter) Remaining() int64 {
	if n := c.left.Load(); n > 0 {
		return n
	}
	return 0
}
