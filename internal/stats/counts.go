package stats

import "cmp"

// Counts maps a key to the number of times it was seen.
// A missing key reads as zero; the first Inc stores 1.
type Counts[K cmp.Ordered] map[K]int64

// Inc increments the counter for key
func (c Counts[K]) Inc(key K) {
	c[key]++
}

// Total returns the sum of all counters
func (c Counts[K]) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}
	return total
}

// Top returns the key with the highest count.
// Ties are broken by the smallest key so the result does not depend on map iteration order.
// ok is false when the mapping is empty.
func (c Counts[K]) Top() (key K, count int64, ok bool) {
	for k, n := range c {
		if !ok || n > count || (n == count && k < key) {
			key, count, ok = k, n, true
		}
	}
	return key, count, ok
}
