package common

// Coalesce returns the first value that is not the zero value of T. Used for
// builder defaults: Coalesce(configured, fallback).
//
// Parameters:
//   - values: candidates in priority order
//
// Returns:
//   - T: the first non-zero candidate, or T's zero value if none
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
