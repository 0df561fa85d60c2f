package services

import (
	"math"

	"github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
)

// Similarity weights. Category identity dominates, with price and rating
// proximity sharing the remainder.
const (
	categoryWeight = 0.4
	priceWeight    = 0.3
	ratingWeight   = 0.3
)

// SimilarityScore computes attribute similarity between two products:
// categoryWeight for an exact category match, priceWeight scaled by price
// proximity, ratingWeight scaled by rating proximity on the 0-5 scale. The
// result is clamped to [0, 1] and is exactly symmetric in its arguments.
func SimilarityScore(a, b *catalog.Product) float64 {
	score := 0.0

	if a.Category == b.Category {
		score += categoryWeight
	}

	maxPrice := math.Max(a.Price, b.Price)
	if maxPrice > 0 {
		score += priceWeight * (1 - math.Abs(a.Price-b.Price)/maxPrice)
	} else {
		// Both free: identical prices.
		score += priceWeight
	}

	score += ratingWeight * (1 - math.Abs(a.Rating-b.Rating)/5)

	return math.Max(0, math.Min(1, score))
}
