// Package utils provides small helpers shared by the HTTP and service
// layers. Nothing here knows about the rehab domain.
package utils

import (
	"cmp"
	"strconv"
)

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// PageOffset normalizes a 1-based page and page size and returns the row
// offset. A non-positive size falls back to def.
func PageOffset(page, size, def int) (p, s, offset int) {
	p = max(page, 1)
	s = size
	if s <= 0 {
		s = def
	}
	return p, s, (p - 1) * s
}
