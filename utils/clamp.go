package utils

import "golang.org/x/exp/constraints"

// Clamp bounds t to the interval spanned by min and max.
func Clamp[T constraints.Ordered](t, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}

// ToByte clamps a float to 0..255 and truncates it.
func ToByte(v float64) uint8 {
	return uint8(Clamp(v, 0, 255))
}
