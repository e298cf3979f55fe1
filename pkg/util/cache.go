package util

import (
	"math/bits"
	"sync/atomic"
)

// Cache is a fixed-size, power-of-two array of atomic 64-bit cells. It is the
// storage layer of the transposition table: every cell is read and written as
// a single machine word with relaxed semantics, so readers never observe a
// torn entry. A zero-length cache is legal but has no cells: Load, Store and
// Update index out of range on it, so the transposition table checks Len
// before every access.
type Cache struct {
	cells []atomic.Uint64
}

// NewCache returns a cache with the given number of cells rounded down to a
// power of two. Zero yields an empty cache.
func NewCache(n uint64) *Cache {
	if n == 0 {
		return &Cache{}
	}
	return &Cache{cells: make([]atomic.Uint64, 1<<(63-bits.LeadingZeros64(n)))}
}

// Len returns the number of cells.
func (c *Cache) Len() uint64 {
	return uint64(len(c.cells))
}

// Mask returns the index mask, i.e. Len()-1.
func (c *Cache) Mask() uint64 {
	if len(c.cells) == 0 {
		return 0
	}
	return uint64(len(c.cells)) - 1
}

// IndexBits returns the number of low key bits consumed by indexing.
func (c *Cache) IndexBits() uint {
	if len(c.cells) == 0 {
		return 0
	}
	return uint(bits.TrailingZeros64(uint64(len(c.cells))))
}

// Load returns the word at idx.
func (c *Cache) Load(idx uint64) uint64 {
	return c.cells[idx].Load()
}

// Store writes the word at idx unconditionally.
func (c *Cache) Store(idx uint64, word uint64) {
	c.cells[idx].Store(word)
}

// Update applies fn to the word at idx until the swap succeeds or fn declines
// the update by returning false. Lock-free; fn must be pure.
func (c *Cache) Update(idx uint64, fn func(old uint64) (uint64, bool)) bool {
	cell := &c.cells[idx]
	for {
		old := cell.Load()
		next, ok := fn(old)
		if !ok {
			return false
		}
		if cell.CompareAndSwap(old, next) {
			return true
		}
	}
}

// Clear zeroes every cell.
func (c *Cache) Clear() {
	for i := range c.cells {
		c.cells[i].Store(0)
	}
}
