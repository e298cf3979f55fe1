// Package search implements the principal-variation search engine: bounded
// scalar types, the shared transposition table, killer moves, search control,
// the parallel move driver, and the alpha-beta core with iterative deepening
// and aspiration windows.
package search

import (
	"fmt"

	"github.com/vesperchess/vesper/pkg/util"
)

// Ply is a number of half-moves from the root, in [-MaxPly, MaxPly].
type Ply int16

// Depth is a nominal search depth, in [0, MaxDepth].
type Depth int16

const (
	MaxPly Ply = 127

	// MaxDepth is bounded by the 5-bit depth field of transposition entries.
	MaxDepth Depth = 31
)

// Draft returns the remaining depth from a node's point of view, clamped at
// zero.
func Draft(depth Depth, ply Ply) Depth {
	if d := Depth(int(depth) - int(ply)); d > 0 {
		return d
	}
	return 0
}

// SaturateDepth clamps a wide integer into the Depth range.
func SaturateDepth(d int) Depth {
	switch {
	case d < 0:
		return 0
	case d > int(MaxDepth):
		return MaxDepth
	default:
		return Depth(d)
	}
}

// Score is a minimax score in [-8191, 8191]. Arithmetic saturates and never
// silently wraps; negation of the lower bound yields the upper bound.
//
// Scores beyond ScoreUpper-MaxPly are mate scores: their offset from the
// bound encodes the distance to mate. Positive means we mate, negative means
// we are mated.
type Score int16

const (
	ScoreUpper Score = 8191
	ScoreLower Score = -ScoreUpper
)

// SaturateScore clamps a wide integer into the Score range.
func SaturateScore(v int32) Score {
	switch {
	case v > int32(ScoreUpper):
		return ScoreUpper
	case v < int32(ScoreLower):
		return ScoreLower
	default:
		return Score(v)
	}
}

// Add returns s+o with saturation.
func (s Score) Add(o Score) Score {
	return SaturateScore(int32(s) + int32(o))
}

// Sub returns s-o with saturation.
func (s Score) Sub(o Score) Score {
	return SaturateScore(int32(s) - int32(o))
}

// Negate returns -s. Safe at the bounds since the range is symmetric.
func (s Score) Negate() Score {
	return -s
}

// Mate returns the number of plies to mate, if one is in the horizon.
// Negative plies mean the opponent is mating.
func (s Score) Mate() (Ply, bool) {
	switch {
	case s <= ScoreLower+Score(MaxPly):
		return Ply(ScoreLower - s), true
	case s >= ScoreUpper-Score(MaxPly):
		return Ply(ScoreUpper - s), true
	default:
		return 0, false
	}
}

// Normalize shifts a mate score towards the horizon by ply, so that it can be
// stored and compared across plies. Non-mate scores are untouched.
func (s Score) Normalize(ply Ply) Score {
	switch {
	case s <= ScoreLower+Score(MaxPly):
		if v := s.Add(Score(ply)); v < ScoreLower+Score(MaxPly) {
			return v
		}
		return ScoreLower + Score(MaxPly)
	case s >= ScoreUpper-Score(MaxPly):
		if v := s.Sub(Score(ply)); v > ScoreUpper-Score(MaxPly) {
			return v
		}
		return ScoreUpper - Score(MaxPly)
	default:
		return s
	}
}

// Encode packs the score into 14 bits.
func (s Score) Encode() util.Bits {
	return util.Bits(0).Push(uint64(int32(s)-int32(ScoreLower)), 14)
}

// DecodeScore unpacks a 14-bit score.
func DecodeScore(v uint64) Score {
	return SaturateScore(int32(v) + int32(ScoreLower))
}

func (s Score) String() string {
	if plies, ok := s.Mate(); ok {
		if plies > 0 {
			return fmt.Sprintf("%+d#%d", int(s), (plies+1)/2)
		}
		return fmt.Sprintf("%+d#%d", int(s), (1-plies)/2)
	}
	return fmt.Sprintf("%+d", int(s))
}
