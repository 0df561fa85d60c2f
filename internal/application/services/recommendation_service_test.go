package services

import (
	"testing"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/domain/entities/recommendation"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

func TestRecommendationSizeBound(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	// Seed enough signal that every strategy has candidates.
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, "u1")
	e.behaviors.TrackBehavior(analytics.ActionPurchase, map[string]any{"productId": "a-001", "category": "accessories"}, "u1")

	requests := []*recommendation.Request{
		{Type: recommendation.ContextHomepage},
		{Type: recommendation.ContextProduct, ProductID: "m-001"},
		{Type: recommendation.ContextCart, CartItems: []string{"m-001", "w-001"}},
		{Type: recommendation.ContextCategory, CategoryID: "men"},
		{Type: recommendation.ContextSearch, SearchQuery: "shirt"},
		{Type: "unknown-context"},
	}

	for _, req := range requests {
		for _, limit := range []int{-3, 0, 1, 3, 8, 100} {
			set := e.recommendations.Recommend(req, "u1", limit)
			max := limit
			if max < 0 {
				max = 0
			}
			if len(set.Recommendations) > max {
				t.Errorf("Recommend(%s, limit=%d) returned %d items", req.Type, limit, len(set.Recommendations))
			}
		}
	}
}

func TestHomepagePersonalizedWithProfile(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	for i := 0; i < 3; i++ {
		e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, "u1")
	}

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextHomepage}, "u1", 8)
	if set.Title != "Recommended for You" {
		t.Errorf("title = %q, want personalized title", set.Title)
	}
	if set.Recommendations[0].Algorithm != recommendation.AlgorithmPersonalized {
		t.Errorf("first algorithm = %q, want personalized", set.Recommendations[0].Algorithm)
	}
	if set.Recommendations[0].Product.Category != "men" {
		t.Errorf("first personalized pick in category %q, want the preferred men", set.Recommendations[0].Product.Category)
	}
}

func TestHomepageAnonymousFallsBackToTrending(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextHomepage}, "", 4)
	if set.Title != "Trending Now" {
		t.Errorf("title = %q, want Trending Now without a profile", set.Title)
	}
	// No behavior yet, so the fill is pure popularity.
	if len(set.Recommendations) != 4 {
		t.Fatalf("recommendation count = %d, want 4 from the popularity fill", len(set.Recommendations))
	}
	for _, rec := range set.Recommendations {
		if rec.Algorithm != recommendation.AlgorithmPopularity {
			t.Errorf("algorithm = %q, want popularity", rec.Algorithm)
		}
	}
}

func TestProductContextBlendsSimilarity(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextProduct, ProductID: "m-001"}, "", 8)
	if len(set.Recommendations) == 0 {
		t.Fatal("no recommendations for a known product")
	}
	first := set.Recommendations[0]
	if first.Algorithm != recommendation.AlgorithmSimilarity {
		t.Errorf("first algorithm = %q, want content_similarity", first.Algorithm)
	}
	if first.Product.ID == "m-001" {
		t.Error("product page recommends the product itself")
	}
}

func TestProductContextUnknownFallsBack(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextProduct, ProductID: "nope"}, "", 4)
	if set.Algorithm != recommendation.AlgorithmPopularity {
		t.Errorf("set algorithm = %q, want popularity fallback for unknown product", set.Algorithm)
	}
}

func TestProductContextMissingIDFallsBack(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextProduct}, "", 4)
	if set.Algorithm != recommendation.AlgorithmPopularity {
		t.Errorf("set algorithm = %q, want popularity fallback for missing productId", set.Algorithm)
	}
}

func TestCollaborativeFiltering(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	// u2 and u3 viewed m-001 and also w-002; u1 is browsing m-001.
	for _, user := range []string{"u2", "u3"} {
		e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, user)
		e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "w-002", "category": "women"}, user)
	}
	e.behaviors.TrackBehavior(analytics.ActionView, map[string]any{"productId": "m-001", "category": "men"}, "u1")

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextProduct, ProductID: "m-001"}, "u1", 8)

	found := false
	for _, rec := range set.Recommendations {
		if rec.Algorithm == recommendation.AlgorithmCollaborative {
			found = true
			if rec.Product.ID != "w-002" {
				t.Errorf("collaborative pick = %s, want co-viewed w-002", rec.Product.ID)
			}
			if rec.Score != 1.0 {
				t.Errorf("collaborative score = %v, want 1.0 (2 co-occurrences / 2 co-viewers)", rec.Score)
			}
		}
	}
	if !found {
		t.Error("no collaborative recommendations despite co-viewer signal")
	}
}

func TestCartComplementaryStrategies(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextCart, CartItems: []string{"m-001"}}, "", 8)

	var boughtWith, complementary []recommendation.Recommendation
	for _, rec := range set.Recommendations {
		switch rec.Algorithm {
		case recommendation.AlgorithmBoughtWith:
			boughtWith = append(boughtWith, rec)
		case recommendation.AlgorithmComplementary:
			complementary = append(complementary, rec)
		default:
			t.Errorf("unexpected algorithm %q in cart context", rec.Algorithm)
		}
	}
	if len(boughtWith) == 0 || len(complementary) == 0 {
		t.Fatalf("cart blend = %d bought-with / %d complementary, want both present", len(boughtWith), len(complementary))
	}

	// The two labels share one strategy, so the same accessory leads both
	// lists and cart items never appear.
	if boughtWith[0].Product.ID != complementary[0].Product.ID {
		t.Errorf("strategies diverged: %s vs %s", boughtWith[0].Product.ID, complementary[0].Product.ID)
	}
	for _, rec := range set.Recommendations {
		if rec.Product.ID == "m-001" {
			t.Error("cart item recommended back to the cart")
		}
		if rec.Product.Category != "accessories" {
			t.Errorf("cart pick in category %q, want accessories for a men cart", rec.Product.Category)
		}
	}
}

func TestCartEmptyFallsBack(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextCart}, "", 4)
	if set.Algorithm != recommendation.AlgorithmPopularity {
		t.Errorf("set algorithm = %q, want popularity fallback for empty cart", set.Algorithm)
	}
}

func TestCategoryRanking(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextCategory, CategoryID: "men"}, "", 2)
	if len(set.Recommendations) != 2 {
		t.Fatalf("recommendation count = %d, want 2", len(set.Recommendations))
	}
	// m-001 has the highest rating*reviews in men.
	if set.Recommendations[0].Product.ID != "m-001" {
		t.Errorf("top category pick = %s, want m-001", set.Recommendations[0].Product.ID)
	}
	if set.Recommendations[0].Score != 1.0 || set.Recommendations[1].Score != 0.5 {
		t.Errorf("scores = %v, %v, want linear decay 1.0, 0.5", set.Recommendations[0].Score, set.Recommendations[1].Score)
	}
}

func TestSearchMatching(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextSearch, SearchQuery: "SHIRT"}, "", 8)
	if len(set.Recommendations) != 1 {
		t.Fatalf("search matches = %d, want 1 case-insensitive match", len(set.Recommendations))
	}
	rec := set.Recommendations[0]
	if rec.Product.ID != "m-001" {
		t.Errorf("search match = %s, want m-001", rec.Product.ID)
	}
	if rec.Confidence != 0.9 {
		t.Errorf("search confidence = %v, want fixed 0.9", rec.Confidence)
	}
	if rec.Algorithm != recommendation.AlgorithmSearch {
		t.Errorf("search algorithm = %q, want search", rec.Algorithm)
	}
}

func TestSearchMatchesDescriptionAndCategory(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	// "wool" only appears in m-003's name and description.
	set := e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextSearch, SearchQuery: "merino"}, "", 8)
	if len(set.Recommendations) != 1 || set.Recommendations[0].Product.ID != "m-003" {
		t.Fatalf("description search failed: %d matches", len(set.Recommendations))
	}

	// Category substring matches every accessory.
	set = e.recommendations.Recommend(&recommendation.Request{Type: recommendation.ContextSearch, SearchQuery: "accessor"}, "", 8)
	if len(set.Recommendations) != 2 {
		t.Errorf("category search matches = %d, want 2", len(set.Recommendations))
	}
}

func TestUnknownContextFallsBackToPopularity(t *testing.T) {
	e := newTestEngine(t, kv.NewMemoryStore())

	set := e.recommendations.Recommend(&recommendation.Request{Type: "mystery"}, "", 3)
	if set.Algorithm != recommendation.AlgorithmPopularity {
		t.Fatalf("set algorithm = %q, want popularity", set.Algorithm)
	}
	// w-001 has the highest rating*reviews overall.
	if set.Recommendations[0].Product.ID != "w-001" {
		t.Errorf("top popularity pick = %s, want w-001", set.Recommendations[0].Product.ID)
	}
}
