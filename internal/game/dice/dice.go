// Package dice provides the randomness abstraction threaded through dungeon
// generation, plus dice expressions used by trap and monster stat blocks.
package dice

// Source is the randomness provider for generation and rolls.
//
// A single Source is consumed by one generation run in a fixed call order;
// implementations are not required to be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

// Pick returns a uniformly chosen element of items.
//
// Precondition: len(items) > 0.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Shuffle permutes items in place with a Fisher-Yates pass driven by src.
//
// Postcondition: items holds the same elements; len(items)-1 draws consumed.
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Between returns a uniform int in [lo, hi].
//
// Precondition: lo <= hi.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
