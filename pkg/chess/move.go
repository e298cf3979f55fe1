package chess

import (
	"fmt"

	"github.com/vesperchess/vesper/pkg/util"
)

// Move represents a legal move along with contextual metadata, bit-packed
// into a single word:
//
//	bits  0-5   whence (source square)
//	bits  6-11  whither (destination square)
//	bits 12-14  promotion piece, NoPiece if none
//	bits 15-17  moving piece
//	bits 18-20  captured piece, NoPiece if none
//	bit  21     en passant
//	bit  22     castle
//	bit  23     double pawn push
//
// The low 15 bits hold the fields that Encode packs, in a different bit order,
// into the wire representation stored in transposition entries; the remainder
// is context reconstructible from the position.
type Move uint32

// MoveNone is the absent-move sentinel. No legal move encodes to zero.
const MoveNone Move = 0

func NewMove(from, to Square, piece Piece) Move {
	return Move(from) | Move(to)<<6 | Move(piece)<<15
}

func (m Move) withPromotion(p Piece) Move { return m | Move(p)<<12 }
func (m Move) withCapture(p Piece) Move   { return m | Move(p)<<18 }
func (m Move) withEnPassant() Move        { return m | 1<<21 }
func (m Move) withCastle() Move           { return m | 1<<22 }
func (m Move) withDoublePush() Move       { return m | 1<<23 }

// Whence returns the source square.
func (m Move) Whence() Square {
	return Square(m & 0x3f)
}

// Whither returns the destination square.
func (m Move) Whither() Square {
	return Square(m >> 6 & 0x3f)
}

// Promotion returns the promotion piece, if any.
func (m Move) Promotion() (Piece, bool) {
	p := Piece(m >> 12 & 0x7)
	return p, p != NoPiece
}

// Piece returns the moving piece.
func (m Move) Piece() Piece {
	return Piece(m >> 15 & 0x7)
}

// Capture returns the captured piece, if any.
func (m Move) Capture() (Piece, bool) {
	p := Piece(m >> 18 & 0x7)
	return p, p != NoPiece
}

func (m Move) IsPromotion() bool {
	_, ok := m.Promotion()
	return ok
}

func (m Move) IsCapture() bool {
	_, ok := m.Capture()
	return ok
}

func (m Move) IsEnPassant() bool {
	return m&(1<<21) != 0
}

func (m Move) IsCastle() bool {
	return m&(1<<22) != 0
}

func (m Move) IsDoublePush() bool {
	return m&(1<<23) != 0
}

// IsQuiet returns true iff the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// Encode packs whence, whither and promotion into 15 bits.
func (m Move) Encode() util.Bits {
	return util.Bits(0).Push(uint64(m.Whence()), 6).Push(uint64(m.Whither()), 6).Push(uint64(m>>12&0x7), 3)
}

// DecodeMove unpacks a 15-bit move. The result carries no context (moving or
// captured piece) and is only suitable for matching against generated moves.
func DecodeMove(bits util.Bits) Move {
	rest, promo := bits.Pop(3)
	rest, to := rest.Pop(6)
	_, from := rest.Pop(6)
	return Move(from) | Move(to)<<6 | Move(promo)<<12
}

// Equals compares moves by source, destination and promotion only.
func (m Move) Equals(o Move) bool {
	return m&0x7fff == o&0x7fff
}

// ParseMove parses a move in pure coordinate notation, such as "a2a4" or
// "a7a8q". The parsed move carries no context.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)
	if len(runes) < 4 || len(runes) > 5 {
		return MoveNone, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return MoveNone, fmt.Errorf("invalid move %q: %v", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return MoveNone, fmt.Errorf("invalid move %q: %v", str, err)
	}

	m := Move(from) | Move(to)<<6
	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return MoveNone, fmt.Errorf("invalid promotion: %q", str)
		}
		m = m.withPromotion(promo)
	}
	return m, nil
}

func (m Move) String() string {
	if promo, ok := m.Promotion(); ok {
		return fmt.Sprintf("%v%v%v", m.Whence(), m.Whither(), promo)
	}
	return fmt.Sprintf("%v%v", m.Whence(), m.Whither())
}

// FormatMoves prints a sequence of moves separated by spaces.
func FormatMoves(moves []Move) string {
	str := ""
	for i, m := range moves {
		if i > 0 {
			str += " "
		}
		str += m.String()
	}
	return str
}
