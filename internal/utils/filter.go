package utils

func FilterArray[T any](input []T, predicate func(T) bool) []T {
	filtered := make([]T, 0)
	for _, item := range input {
		if predicate(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Take returns at most n leading elements of input.
func Take[T any](input []T, n int) []T {
	if n <= 0 {
		return input[:0]
	}
	if len(input) > n {
		return input[:n]
	}
	return input
}
