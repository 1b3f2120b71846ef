package common

import "strings"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// NameKey folds an animation or channel name for case-insensitive lookups.
//
// Parameters:
//   - name: the name to fold
//
// Returns:
//   - string: the lookup key
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
