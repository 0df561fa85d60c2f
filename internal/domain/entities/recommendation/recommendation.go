// Package recommendation provides the ephemeral result entities returned by
// the recommendation engine. Nothing in this package is persisted.
package recommendation

import "github.com/merchstack/merchstack-go/internal/domain/entities/catalog"

// Context types accepted by the engine. An unrecognized type falls back to
// pure popularity ranking.
const (
	ContextHomepage = "homepage"
	ContextProduct  = "product"
	ContextCart     = "cart"
	ContextCategory = "category"
	ContextSearch   = "search"
)

// Algorithm tags attached to individual recommendations.
const (
	AlgorithmPersonalized  = "personalized"
	AlgorithmTrending      = "trending"
	AlgorithmPopularity    = "popularity"
	AlgorithmSimilarity    = "content_similarity"
	AlgorithmCollaborative = "collaborative"
	AlgorithmCategory      = "category"
	AlgorithmBoughtWith    = "frequently_bought_together"
	AlgorithmComplementary = "complementary"
	AlgorithmSearch        = "search"
)

// Request describes one recommendation query. Only the fields relevant to
// the chosen context type need to be set; a missing required field degrades
// the request to the popularity fallback.
type Request struct {
	Type        string   `json:"type"`
	ProductID   string   `json:"productId,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
	CartItems   []string `json:"cartItems,omitempty"`
	SearchQuery string   `json:"searchQuery,omitempty"`
}

// Recommendation pairs a product with a strategy-relative score. Scores are
// comparable within one algorithm, not across algorithms.
type Recommendation struct {
	Product    *catalog.Product `json:"product"`
	Score      float64          `json:"score"`
	Algorithm  string           `json:"algorithm"`
	Reason     string           `json:"reason"`
	Confidence float64          `json:"confidence"`
}

// Set is the full response for one query. The same product may appear twice
// when it qualifies under two blended strategies; callers rely on that
// overlap, so the engine does not deduplicate.
type Set struct {
	Recommendations []Recommendation `json:"recommendations"`
	Title           string           `json:"title"`
	Subtitle        string           `json:"subtitle"`
	Algorithm       string           `json:"algorithm"`
}
