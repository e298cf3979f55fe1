// Package chess implements the rules of chess: board representation, legal
// move generation, make/pass/exchange, Zobrist hashing, FEN and game outcome.
// It is the rules collaborator of the search engine and knows nothing about
// searching or evaluation.
package chess

import "fmt"

// Square represents a square on the board, ordered A1=0, B1=1, ..., H8=63.
// The numbering matches the little-endian rank-file bitboard layout: a square
// is a bit-index into a Bitboard. 6 bits.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1

	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2

	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3

	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4

	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5

	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6

	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7

	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
)

// Iteration helpers to enable "for sq := ZeroSquare; sq < NumSquares; sq++".
const (
	ZeroSquare Square = 0
	NumSquares Square = 64
)

// NoSquare is the absent-square sentinel, e.g. no en passant target.
const NoSquare Square = 64

func NewSquare(f File, r Rank) Square {
	return Square(r)<<3 | Square(f)
}

func ParseSquare(f, r rune) (Square, error) {
	file, ok := ParseFile(f)
	if !ok {
		return NoSquare, fmt.Errorf("invalid file: %q", f)
	}
	rank, ok := ParseRank(r)
	if !ok {
		return NoSquare, fmt.Errorf("invalid rank: %q", r)
	}
	return NewSquare(file, rank), nil
}

func ParseSquareStr(str string) (Square, error) {
	runes := []rune(str)
	if len(runes) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", str)
	}
	return ParseSquare(runes[0], runes[1])
}

func (s Square) IsValid() bool {
	return s < NumSquares
}

func (s Square) File() File {
	return File(s & 0x7)
}

func (s Square) Rank() Rank {
	return Rank(s >> 3)
}

// Mirror flips the square vertically, i.e. A1 <-> A8.
func (s Square) Mirror() Square {
	return s ^ 56
}

func (s Square) String() string {
	if !s.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%v%v", s.File(), s.Rank())
}

// File represents a board file from FileA=0, ..., FileH=7. 3 bits.
type File uint8

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	FileH
)

const (
	ZeroFile File = 0
	NumFiles File = 8
)

func ParseFile(r rune) (File, bool) {
	if 'a' <= r && r <= 'h' {
		return File(r - 'a'), true
	}
	if 'A' <= r && r <= 'H' {
		return File(r - 'A'), true
	}
	return 0, false
}

func (f File) String() string {
	if f > FileH {
		return "?"
	}
	return string(rune('a' + f))
}

// Rank represents a board rank from Rank1=0, ..., Rank8=7. 3 bits.
type Rank uint8

const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
)

const (
	ZeroRank Rank = 0
	NumRanks Rank = 8
)

func ParseRank(r rune) (Rank, bool) {
	if '1' <= r && r <= '8' {
		return Rank(r - '1'), true
	}
	return 0, false
}

func (r Rank) String() string {
	if r > Rank8 {
		return "?"
	}
	return string(rune('1' + r))
}
