package nnue

import (
	"github.com/vesperchess/vesper/pkg/chess"
)

// Evaluator is an incrementally evaluated position. It owns the position and
// keeps the accumulators in lockstep with every Play, Pass and Exchange. One
// evaluator is constructed per root position and cloned at fork points; it
// never aliases another evaluator.
type Evaluator struct {
	pos *chess.Position
	acc combined
}

// NewEvaluator constructs an evaluator for the given position. The position
// is owned by the evaluator afterwards.
func NewEvaluator(pos *chess.Position) *Evaluator {
	e := &Evaluator{pos: pos}
	refresh(pos, &e.acc)
	return e
}

// Position returns the wrapped position. Read-only for callers.
func (e *Evaluator) Position() *chess.Position {
	return e.pos
}

// Clone returns an independent copy.
func (e *Evaluator) Clone() *Evaluator {
	return &Evaluator{pos: e.pos.Clone(), acc: e.acc}
}

// Material returns a material-only evaluator for the same position, used for
// capture ordering.
func (e *Evaluator) Material() *MaterialEvaluator {
	return &MaterialEvaluator{pos: e.pos.Clone(), acc: e.acc.material}
}

// Evaluate returns the static evaluation for the side to move.
func (e *Evaluator) Evaluate() Value {
	return SaturateValue(e.acc.Evaluate(phase(e.pos)))
}

// MaterialValue returns the material component of the evaluation.
func (e *Evaluator) MaterialValue() Value {
	return SaturateValue(e.acc.material.Evaluate(phase(e.pos)))
}

// PositionalValue returns the positional component of the evaluation.
func (e *Evaluator) PositionalValue() Value {
	return SaturateValue(e.acc.positional.Evaluate(phase(e.pos)))
}

// Play makes a legal move and patches the accumulators.
func (e *Evaluator) Play(m chess.Move) {
	e.pos.Play(m)
	e.acc.Mirror()
	update(e.pos, &e.acc, m)
}

// Pass makes a null move. Only the perspectives swap.
func (e *Evaluator) Pass() error {
	if err := e.pos.Pass(); err != nil {
		return err
	}
	e.acc.Mirror()
	return nil
}

// Exchange captures on the square with the least valuable attacker. May leave
// the position invalid; clone first to preserve it.
func (e *Evaluator) Exchange(sq chess.Square) (chess.Move, error) {
	m, err := e.pos.Exchange(sq)
	if err != nil {
		return chess.MoveNone, err
	}
	e.acc.Mirror()
	update(e.pos, &e.acc, m)
	return m, nil
}

// See evaluates the sequence of forced captures on the square by recursive
// negamax within [alpha, beta]. It mutates the evaluator.
func (e *Evaluator) See(sq chess.Square, alpha, beta Value) Value {
	for {
		if v := e.Evaluate(); alpha < v {
			alpha = v
		}
		if alpha >= beta {
			return beta
		}
		if _, err := e.Exchange(sq); err != nil {
			return alpha
		}

		if v := e.Evaluate().Negate(); v < beta {
			beta = v
		}
		if alpha >= beta {
			return alpha
		}
		if _, err := e.Exchange(sq); err != nil {
			return beta
		}
	}
}

// MaterialEvaluator is the material-only half of an Evaluator. It is cheap to
// clone and play on, and is used to score captures for move ordering.
type MaterialEvaluator struct {
	pos *chess.Position
	acc Material
}

// Evaluate returns the material balance for the side to move.
func (e *MaterialEvaluator) Evaluate() Value {
	return SaturateValue(e.acc.Evaluate(phase(e.pos)))
}

// Play makes a legal move and patches the accumulator.
func (e *MaterialEvaluator) Play(m chess.Move) {
	e.pos.Play(m)
	e.acc.Mirror()
	update(e.pos, &e.acc, m)
}

func phase(pos *chess.Position) int {
	return (pos.Occupied().Count() - 1) / 4
}

func refresh(pos *chess.Position, acc accumulator) {
	us := pos.Turn()
	acc.Refresh(perspective(pos, us), perspective(pos, us.Opponent()))
}

// update patches the accumulator after the position has played m and the
// perspectives have been mirrored. King moves recompute both perspectives
// from the piece list; all other moves apply feature deltas.
func update(pos *chess.Position, acc accumulator, m chess.Move) {
	turn := pos.Turn()       // side to move after m
	mover := turn.Opponent() // side that played m

	if m.Piece() == chess.King {
		refresh(pos, acc)
		return
	}

	kings := [2]chess.Square{pos.King(turn), pos.King(mover)}
	index := func(c chess.Color, piece chess.Piece, sq chess.Square) (uint16, uint16) {
		us := Feature{King: kings[0], Color: c, Piece: piece, Square: sq}.Index(turn)
		them := Feature{King: kings[1], Color: c, Piece: piece, Square: sq}.Index(mover)
		return us, them
	}

	placed := m.Piece()
	if promo, ok := m.Promotion(); ok {
		placed = promo
	}
	acc.Add(index(mover, placed, m.Whither()))
	acc.Remove(index(mover, m.Piece(), m.Whence()))

	if capture, ok := m.Capture(); ok {
		target := m.Whither()
		if m.IsEnPassant() {
			target = chess.NewSquare(m.Whither().File(), m.Whence().Rank())
		}
		acc.Remove(index(turn, capture, target))
	}
}
