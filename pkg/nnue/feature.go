package nnue

import "github.com/vesperchess/vesper/pkg/chess"

// Feature is the HalfKAv2 input feature: the perspective's own king square
// together with a piece and its square.
type Feature struct {
	King   chess.Square
	Color  chess.Color
	Piece  chess.Piece
	Square chess.Square
}

// Mirror flips the feature vertically and inverts the piece color.
func (f Feature) Mirror() Feature {
	return Feature{
		King:   f.King.Mirror(),
		Color:  f.Color.Opponent(),
		Piece:  f.Piece,
		Square: f.Square.Mirror(),
	}
}

// Index maps the feature to its transformer column for the given perspective.
// The black perspective sees the mirrored feature. Both kings share the last
// piece plane, hence the clamp to 10.
func (f Feature) Index(side chess.Color) uint16 {
	if side == chess.Black {
		f = f.Mirror()
	}

	plane := 2 * (uint16(f.Piece) - 1)
	if f.Color == chess.Black {
		plane++
	}
	if plane > 10 {
		plane = 10
	}
	return uint16(f.Square) + 64*(plane+11*uint16(f.King))
}

// perspective returns the active feature indices of the position as seen by
// the given side.
func perspective(pos *chess.Position, side chess.Color) []uint16 {
	king := pos.King(side)
	features := make([]uint16, 0, 32)
	pos.Each(func(c chess.Color, piece chess.Piece, sq chess.Square) {
		features = append(features, Feature{King: king, Color: c, Piece: piece, Square: sq}.Index(side))
	})
	return features
}
