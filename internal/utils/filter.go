package utils

// FilterArray returns the elements of input for which keep returns true,
// preserving order. The result is never nil.
func FilterArray[T any](input []T, keep func(T) bool) []T {
	filtered := make([]T, 0, len(input))
	for _, item := range input {
		if keep(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
