// Package services provides pure domain algorithms for the personalization
// and experimentation engine: deterministic bucketing, product similarity
// scoring, and the experiment results heuristics.
package services

// Bucket maps a user key to a stable bucket in [0, 100). It is a 32-bit
// multiply-add rolling hash (h = h*31 + char, truncated to 32 bits) with the
// absolute value taken before the modulo. The same key always yields the
// same bucket across runs, which is what makes qualification and variant
// assignment reproducible.
func Bucket(userKey string) int {
	var h int32
	for _, c := range userKey {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % 100)
}

// PickVariantIndex walks variant weights in order, accumulating them, and
// returns the index of the first variant whose cumulative weight exceeds the
// bucket. When the weights do not cover the bucket (they sum to less than
// 100), index 0 is returned so callers degrade to the first variant.
func PickVariantIndex(bucket int, weights []int) int {
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if bucket < cumulative {
			return i
		}
	}
	return 0
}
