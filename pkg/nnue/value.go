package nnue

// Value is a position's static evaluation in centipawns, bounded to
// [-8000, 8000]. Arithmetic saturates; negation of the lower bound yields the
// upper bound.
type Value int16

const (
	ValueUpper Value = 8000
	ValueLower Value = -ValueUpper
)

// SaturateValue clamps a wide integer into the Value range.
func SaturateValue(v int32) Value {
	switch {
	case v > int32(ValueUpper):
		return ValueUpper
	case v < int32(ValueLower):
		return ValueLower
	default:
		return Value(v)
	}
}

// Add returns v+o with saturation.
func (v Value) Add(o Value) Value {
	return SaturateValue(int32(v) + int32(o))
}

// Sub returns v-o with saturation.
func (v Value) Sub(o Value) Value {
	return SaturateValue(int32(v) - int32(o))
}

// Negate returns -v. Safe at the bounds since the range is symmetric.
func (v Value) Negate() Value {
	return -v
}
