package search

import (
	"go.uber.org/atomic"

	"github.com/vesperchess/vesper/pkg/chess"
	"github.com/vesperchess/vesper/pkg/util"
)

// Killer is a pair of quiet moves that recently caused a beta cutoff at some
// ply. Packed into 32 bits: two 15-bit wire moves with the first slot in the
// low half. A zero half means empty; no legal move encodes to zero.
type Killer uint32

// Insert adds a move to the pair, shifting the previous first killer into the
// second slot. Inserting the current first killer is a no-op.
func (k Killer) Insert(m chess.Move) Killer {
	wire := Killer(m.Encode())
	if k&0x7fff == wire {
		return k
	}
	return k<<15&0x3fff8000 | wire
}

// Contains returns whether the move is one of the two killers.
func (k Killer) Contains(m chess.Move) bool {
	wire := Killer(m.Encode())
	return k&0x7fff == wire || k>>15&0x7fff == wire
}

// First returns the most recent killer, if any.
func (k Killer) First() (chess.Move, bool) {
	wire := k & 0x7fff
	return chess.DecodeMove(util.Bits(wire)), wire != 0
}

// Killers is the killer-move table, indexed by ply and side to move. Slots
// are atomic so concurrent workers at the same ply never tear a pair; all
// accesses are relaxed.
type Killers struct {
	slots [MaxPly][chess.NumColors]atomic.Uint32
}

// Insert adds a killer move at the given ply for the given side.
func (ks *Killers) Insert(ply Ply, side chess.Color, m chess.Move) {
	if ply < 0 || ply >= MaxPly {
		return
	}
	slot := &ks.slots[ply][side]
	slot.Store(uint32(Killer(slot.Load()).Insert(m)))
}

// Get returns the killer pair at the given ply for the given side.
func (ks *Killers) Get(ply Ply, side chess.Color) Killer {
	if ply < 0 || ply >= MaxPly {
		return 0
	}
	return Killer(ks.slots[ply][side].Load())
}
