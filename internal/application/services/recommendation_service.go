package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
	"github.com/merchstack/merchstack-go/internal/domain/entities/profile"
	"github.com/merchstack/merchstack-go/internal/domain/entities/recommendation"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
)

// Per-algorithm confidence levels. Search is fixed at 0.9; the rest reflect
// how much behavioral signal backs the strategy.
const (
	confidencePersonalized  = 0.8
	confidenceSimilarity    = 0.75
	confidenceTrending      = 0.7
	confidenceCollaborative = 0.65
	confidenceCategory      = 0.6
	confidenceComplementary = 0.6
	confidencePopularity    = 0.5
	confidenceSearch        = 0.9
)

// complementaryCategories maps a cart category to the categories that pair
// with it.
var complementaryCategories = map[string][]string{
	"men":         {"accessories"},
	"women":       {"accessories"},
	"accessories": {"men", "women"},
}

// personalizedCategoryCount caps how many profile categories feed the
// homepage strategy.
const personalizedCategoryCount = 3

// RecommendationService blends the personalization strategies into ranked
// recommendation sets. Results are ephemeral and recomputed per request.
//
// A product may appear more than once in one set when it qualifies under
// two blended strategies. Callers show that overlap as reinforcement, so
// no deduplication happens here.
type RecommendationService struct {
	similarity  *SimilarityService
	profiles    *ProfileService
	trending    *TrendingService
	behaviors   *BehaviorService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewRecommendationService wires the recommendation engine over its inputs.
func NewRecommendationService(similarity *SimilarityService, profiles *ProfileService, trending *TrendingService, behaviors *BehaviorService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RecommendationService {
	return &RecommendationService{
		similarity:  similarity,
		profiles:    profiles,
		trending:    trending,
		behaviors:   behaviors,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Recommend answers one recommendation query. A request missing its required
// context field degrades to the popularity fallback instead of failing.
func (s *RecommendationService) Recommend(req *recommendation.Request, userID string, limit int) *recommendation.Set {
	marker := s.perfTracker.StartOperation("recommend")
	defer marker.Complete()
	marker.AddMetadata("type", req.Type)

	if limit < 0 {
		limit = 0
	}

	var set *recommendation.Set
	switch req.Type {
	case recommendation.ContextHomepage:
		set = s.homepage(userID, limit)
	case recommendation.ContextProduct:
		set = s.productPage(req.ProductID, userID, limit)
	case recommendation.ContextCart:
		set = s.cart(req.CartItems, limit)
	case recommendation.ContextCategory:
		set = s.category(req.CategoryID, limit)
	case recommendation.ContextSearch:
		set = s.search(req.SearchQuery, limit)
	default:
		set = s.popularitySet(limit)
	}

	if len(set.Recommendations) > limit {
		set.Recommendations = set.Recommendations[:limit]
	}

	marker.AddMetadata("count", len(set.Recommendations))
	marker.SetSuccess(true)
	s.logger.Recommend().Debug("Served recommendations", "type", req.Type, "algorithm", set.Algorithm, "count", len(set.Recommendations))
	return set
}

// homepage blends personalized, trending, and popularity picks.
func (s *RecommendationService) homepage(userID string, limit int) *recommendation.Set {
	var recs []recommendation.Recommendation

	personalized := false
	if userID != "" {
		if p, ok := s.profiles.Profile(userID); ok {
			recs = s.personalized(p, limit/2, limit)
			personalized = len(recs) > 0
		}
	}

	if remaining := limit - len(recs); remaining > 0 {
		recs = append(recs, s.trendingRecs(remaining)...)
	}
	if remaining := limit - len(recs); remaining > 0 {
		recs = append(recs, s.popularity(remaining)...)
	}

	if personalized {
		return &recommendation.Set{
			Recommendations: recs,
			Title:           "Recommended for You",
			Subtitle:        "Based on your browsing and purchase history",
			Algorithm:       recommendation.AlgorithmPersonalized,
		}
	}
	return &recommendation.Set{
		Recommendations: recs,
		Title:           "Trending Now",
		Subtitle:        "What other shoppers are looking at",
		Algorithm:       recommendation.AlgorithmTrending,
	}
}

// personalized picks from the profile's top categories, each contributing
// up to ceil(limit/numCategories) products inside the preferred price range,
// best rated first. The result is capped at maxSlots.
func (s *RecommendationService) personalized(p *profile.UserProfile, maxSlots, limit int) []recommendation.Recommendation {
	categories := topCategories(p.Preferences.Categories, personalizedCategoryCount)
	if len(categories) == 0 || maxSlots <= 0 {
		return nil
	}

	perCategory := int(math.Ceil(float64(limit) / float64(len(categories))))
	var recs []recommendation.Recommendation

	for _, category := range categories {
		interest := p.Preferences.Categories[category]
		products := s.similarity.ProductsInCategory(category)

		var inRange []*catalog.Product
		for _, product := range products {
			if product.Price >= p.Preferences.PriceRange.Min && product.Price <= p.Preferences.PriceRange.Max {
				inRange = append(inRange, product)
			}
		}
		sort.SliceStable(inRange, func(i, j int) bool { return inRange[i].Rating > inRange[j].Rating })

		if len(inRange) > perCategory {
			inRange = inRange[:perCategory]
		}
		for _, product := range inRange {
			recs = append(recs, recommendation.Recommendation{
				Product:    product,
				Score:      float64(interest) * (product.Rating / 5),
				Algorithm:  recommendation.AlgorithmPersonalized,
				Reason:     fmt.Sprintf("Because you like %s", category),
				Confidence: confidencePersonalized,
			})
		}
	}

	if len(recs) > maxSlots {
		recs = recs[:maxSlots]
	}
	return recs
}

// trendingRecs converts the trending id list into recommendations with a
// linearly decaying score by rank.
func (s *RecommendationService) trendingRecs(limit int) []recommendation.Recommendation {
	ids := s.trending.TrendingProducts()
	n := len(ids)

	var recs []recommendation.Recommendation
	for i, id := range ids {
		if len(recs) >= limit {
			break
		}
		product, ok := s.similarity.Product(id)
		if !ok {
			continue
		}
		recs = append(recs, recommendation.Recommendation{
			Product:    product,
			Score:      float64(n-i) / float64(n),
			Algorithm:  recommendation.AlgorithmTrending,
			Reason:     "Trending this week",
			Confidence: confidenceTrending,
		})
	}
	return recs
}

// popularity ranks the whole catalog by rating times review count.
func (s *RecommendationService) popularity(limit int) []recommendation.Recommendation {
	products := make([]*catalog.Product, len(s.similarity.Products()))
	copy(products, s.similarity.Products())
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Rating*float64(products[i].Reviews) > products[j].Rating*float64(products[j].Reviews)
	})

	if limit >= 0 && len(products) > limit {
		products = products[:limit]
	}

	recs := make([]recommendation.Recommendation, 0, len(products))
	for _, product := range products {
		recs = append(recs, recommendation.Recommendation{
			Product:    product,
			Score:      product.Rating * float64(product.Reviews),
			Algorithm:  recommendation.AlgorithmPopularity,
			Reason:     "Popular with shoppers",
			Confidence: confidencePopularity,
		})
	}
	return recs
}

func (s *RecommendationService) popularitySet(limit int) *recommendation.Set {
	return &recommendation.Set{
		Recommendations: s.popularity(limit),
		Title:           "Popular Products",
		Subtitle:        "Best sellers across the store",
		Algorithm:       recommendation.AlgorithmPopularity,
	}
}

// productPage blends similarity, collaborative filtering, and same-category
// picks around one product.
func (s *RecommendationService) productPage(productID, userID string, limit int) *recommendation.Set {
	product, ok := s.similarity.Product(productID)
	if !ok {
		return s.popularitySet(limit)
	}

	var recs []recommendation.Recommendation

	for _, similar := range s.similarity.TopSimilar(productID, limit/2) {
		recs = append(recs, recommendation.Recommendation{
			Product:    similar.Product,
			Score:      similar.Score,
			Algorithm:  recommendation.AlgorithmSimilarity,
			Reason:     fmt.Sprintf("Similar to %s", product.Name),
			Confidence: confidenceSimilarity,
		})
	}

	if userID != "" {
		if _, ok := s.profiles.Profile(userID); ok {
			if remaining := limit - len(recs); remaining > 0 {
				recs = append(recs, s.collaborative(productID, userID, remaining)...)
			}
		}
	}

	if remaining := limit - len(recs); remaining > 0 {
		for _, sibling := range s.sameCategoryByRating(product, remaining) {
			recs = append(recs, recommendation.Recommendation{
				Product:    sibling,
				Score:      sibling.Rating / 5,
				Algorithm:  recommendation.AlgorithmCategory,
				Reason:     fmt.Sprintf("More in %s", product.Category),
				Confidence: confidenceCategory,
			})
		}
	}

	return &recommendation.Set{
		Recommendations: recs,
		Title:           "You Might Also Like",
		Subtitle:        fmt.Sprintf("Picks related to %s", product.Name),
		Algorithm:       recommendation.AlgorithmSimilarity,
	}
}

// collaborative finds users who viewed the same product and ranks the other
// products they viewed by co-occurrence count over the number of co-viewers.
func (s *RecommendationService) collaborative(productID, userID string, limit int) []recommendation.Recommendation {
	coViewers := make(map[string]struct{})
	for _, b := range s.behaviors.All() {
		if b.Action == analytics.ActionView && b.ProductID == productID && b.UserID != "" && b.UserID != userID {
			coViewers[b.UserID] = struct{}{}
		}
	}
	if len(coViewers) == 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, b := range s.behaviors.All() {
		if b.Action != analytics.ActionView || b.ProductID == "" || b.ProductID == productID {
			continue
		}
		if _, ok := coViewers[b.UserID]; !ok {
			continue
		}
		if _, seen := counts[b.ProductID]; !seen {
			order = append(order, b.ProductID)
		}
		counts[b.ProductID]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	var recs []recommendation.Recommendation
	for _, id := range order {
		if len(recs) >= limit {
			break
		}
		product, ok := s.similarity.Product(id)
		if !ok {
			continue
		}
		recs = append(recs, recommendation.Recommendation{
			Product:    product,
			Score:      float64(counts[id]) / float64(len(coViewers)),
			Algorithm:  recommendation.AlgorithmCollaborative,
			Reason:     "Shoppers who viewed this also viewed",
			Confidence: confidenceCollaborative,
		})
	}
	return recs
}

// sameCategoryByRating returns the best-rated products sharing a category
// with the reference, excluding the reference itself.
func (s *RecommendationService) sameCategoryByRating(reference *catalog.Product, limit int) []*catalog.Product {
	var siblings []*catalog.Product
	for _, p := range s.similarity.ProductsInCategory(reference.Category) {
		if p.ID != reference.ID {
			siblings = append(siblings, p)
		}
	}
	sort.SliceStable(siblings, func(i, j int) bool { return siblings[i].Rating > siblings[j].Rating })

	if limit >= 0 && len(siblings) > limit {
		siblings = siblings[:limit]
	}
	return siblings
}

// cart recommends complementary-category products for the items in the
// cart. Frequently-bought-together and complementary picks share one
// strategy on purpose; they differ only in labeling.
func (s *RecommendationService) cart(cartItems []string, limit int) *recommendation.Set {
	if len(cartItems) == 0 {
		return s.popularitySet(limit)
	}

	half := limit / 2
	boughtWith := s.complementary(cartItems, half, recommendation.AlgorithmBoughtWith, "Frequently bought together")
	complementary := s.complementary(cartItems, limit-len(boughtWith), recommendation.AlgorithmComplementary, "Completes your look")

	return &recommendation.Set{
		Recommendations: append(boughtWith, complementary...),
		Title:           "Complete Your Order",
		Subtitle:        "Items that pair with your cart",
		Algorithm:       recommendation.AlgorithmBoughtWith,
	}
}

// complementary is the shared cart strategy: derive the cart's categories,
// map each through the complementary-category table, and take the best
// rated products from those categories that are not already in the cart.
func (s *RecommendationService) complementary(cartItems []string, limit int, algorithm, reason string) []recommendation.Recommendation {
	inCart := make(map[string]struct{}, len(cartItems))
	cartCategories := make(map[string]struct{})
	for _, id := range cartItems {
		inCart[id] = struct{}{}
		if product, ok := s.similarity.Product(id); ok {
			cartCategories[product.Category] = struct{}{}
		}
	}

	targetCategories := make(map[string]struct{})
	for category := range cartCategories {
		for _, complement := range complementaryCategories[category] {
			targetCategories[complement] = struct{}{}
		}
	}

	var candidates []*catalog.Product
	for _, p := range s.similarity.Products() {
		if _, ok := targetCategories[p.Category]; !ok {
			continue
		}
		if _, ok := inCart[p.ID]; ok {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Rating > candidates[j].Rating })

	if limit < 0 {
		limit = 0
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	recs := make([]recommendation.Recommendation, 0, len(candidates))
	for _, p := range candidates {
		recs = append(recs, recommendation.Recommendation{
			Product:    p,
			Score:      p.Rating / 5,
			Algorithm:  algorithm,
			Reason:     reason,
			Confidence: confidenceComplementary,
		})
	}
	return recs
}

// category ranks one category by rating times review count with a linearly
// decaying score by rank.
func (s *RecommendationService) category(categoryID string, limit int) *recommendation.Set {
	if categoryID == "" {
		return s.popularitySet(limit)
	}

	products := s.similarity.ProductsInCategory(categoryID)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Rating*float64(products[i].Reviews) > products[j].Rating*float64(products[j].Reviews)
	})
	if len(products) > limit {
		products = products[:limit]
	}

	n := len(products)
	recs := make([]recommendation.Recommendation, 0, n)
	for i, p := range products {
		recs = append(recs, recommendation.Recommendation{
			Product:    p,
			Score:      float64(n-i) / float64(n),
			Algorithm:  recommendation.AlgorithmCategory,
			Reason:     fmt.Sprintf("Top rated in %s", categoryID),
			Confidence: confidenceCategory,
		})
	}

	return &recommendation.Set{
		Recommendations: recs,
		Title:           fmt.Sprintf("Best of %s", categoryID),
		Subtitle:        "Highest rated in this category",
		Algorithm:       recommendation.AlgorithmCategory,
	}
}

// search matches the query case-insensitively against name, description,
// and category. Ranking preserves catalog order with a decaying score.
func (s *RecommendationService) search(query string, limit int) *recommendation.Set {
	if query == "" {
		return s.popularitySet(limit)
	}

	needle := strings.ToLower(query)
	var matches []*catalog.Product
	for _, p := range s.similarity.Products() {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matches = append(matches, p)
		}
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	n := len(matches)
	recs := make([]recommendation.Recommendation, 0, n)
	for i, p := range matches {
		recs = append(recs, recommendation.Recommendation{
			Product:    p,
			Score:      float64(n-i) / float64(n),
			Algorithm:  recommendation.AlgorithmSearch,
			Reason:     fmt.Sprintf("Matches %q", query),
			Confidence: confidenceSearch,
		})
	}

	return &recommendation.Set{
		Recommendations: recs,
		Title:           fmt.Sprintf("Results for %q", query),
		Subtitle:        "Products matching your search",
		Algorithm:       recommendation.AlgorithmSearch,
	}
}

// topCategories returns up to n category names ranked by interest count
// descending, with alphabetical order breaking ties so the result is stable.
func topCategories(counts map[string]int, n int) []string {
	categories := make([]string, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if counts[categories[i]] != counts[categories[j]] {
			return counts[categories[i]] > counts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	if len(categories) > n {
		categories = categories[:n]
	}
	return categories
}
