package utils

import (
	"strings"
)

func Ptr[T any](v T) *T {
	return &v
}

// IsEmpty reports whether s has no content besides whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func AverageFloat32(values []float32) float32 {
	if len(values) == 0 {
		return 0
	}
	var sum float32
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
