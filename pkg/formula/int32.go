package formula

import (
	"fmt"
	"math"
	"strconv"
)

// The formula language's sole value type is a 32-bit two's-complement signed
// integer. Addition, subtraction, multiplication, and negation on Go's int32
// already wrap exactly like the host engine's hardware arithmetic, and Go's
// integer division truncates toward zero, so only the coercion helpers below
// need explicit care.

// parseChunkSize is how many decimal digits ParseInt32 consumes per chunk.
// 15 digits stay well within exact uint64 (and float64) precision.
const parseChunkSize = 15

// ToInt32 coerces a numeric value to int32 the way the host engine does:
// the integer part is truncated toward zero and its low 32 bits are
// reinterpreted as a signed value. NaN and infinities coerce to 0.
func ToInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	t := math.Trunc(v)
	// math.Mod is exact for integral float64 values, so this keeps the low
	// 32 bits correct even when t is far outside the int64 range.
	m := math.Mod(t, 1<<32)
	return int32(int64(m))
}

// IsInt32 reports whether v is exactly representable as an int32.
func IsInt32(v float64) bool {
	return v == float64(ToInt32(v))
}

// ParseInt32 parses an unsigned decimal digit string of arbitrary length
// into an int32 with two's-complement wraparound, bit-for-bit matching a
// hardware 32-bit parse of the same digits. The string is consumed in
// 15-digit chunks; the accumulator wraps in uint64, which preserves the low
// 32 bits exactly, and the final truncation happens only once at the end.
func ParseInt32(digits string) (int32, error) {
	if digits == "" {
		return 0, fmt.Errorf("empty digit string")
	}

	var acc uint64
	for start := 0; start < len(digits); start += parseChunkSize {
		end := start + parseChunkSize
		if end > len(digits) {
			end = len(digits)
		}
		chunk := digits[start:end]

		v, err := strconv.ParseUint(chunk, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid digit string %q", digits)
		}

		mult := uint64(1)
		for i := 0; i < len(chunk); i++ {
			mult *= 10
		}
		acc = acc*mult + v
	}

	return int32(uint32(acc)), nil
}
