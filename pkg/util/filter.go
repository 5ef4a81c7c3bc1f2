package util

// Filter returns the elements matching p in their original order, leaving s untouched
func Filter[T any](s []T, p func(T) bool) []T {
	var filtered []T
	for _, e := range s {
		if p(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
