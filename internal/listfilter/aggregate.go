package listfilter

// Number is the set of types SumBy can add up.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// CountBy counts items per key.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[key(item)]++
	}
	return counts
}

// SumBy totals value per key.
func SumBy[T any, N Number](items []T, key func(T) string, value func(T) N) map[string]N {
	sums := make(map[string]N)
	for _, item := range items {
		sums[key(item)] += value(item)
	}
	return sums
}

// Sum totals value over all items.
func Sum[T any, N Number](items []T, value func(T) N) N {
	var total N
	for _, item := range items {
		total += value(item)
	}
	return total
}
