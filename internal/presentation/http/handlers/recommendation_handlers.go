package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/services"
	"github.com/merchstack/merchstack-go/internal/domain/entities/recommendation"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// RecommendationRequest represents the body of a recommendation query
type RecommendationRequest struct {
	Type        string   `json:"type" binding:"required"`
	ProductID   string   `json:"productId"`
	CategoryID  string   `json:"categoryId"`
	CartItems   []string `json:"cartItems"`
	SearchQuery string   `json:"searchQuery"`
	UserID      string   `json:"userId"`
	Limit       *int     `json:"limit"`
}

// RecommendationHandlers contains the recommendation HTTP handlers
type RecommendationHandlers struct {
	recommendationService *services.RecommendationService
	trendingService       *services.TrendingService
	similarityService     *services.SimilarityService
	analyticsService      *services.AnalyticsService
	logger                *logging.ChanneledLogger
	perfTracker           *performance.Tracker
}

// NewRecommendationHandlers creates recommendation handlers with injected dependencies
func NewRecommendationHandlers(recommendationService *services.RecommendationService, trendingService *services.TrendingService, similarityService *services.SimilarityService, analyticsService *services.AnalyticsService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RecommendationHandlers {
	return &RecommendationHandlers{
		recommendationService: recommendationService,
		trendingService:       trendingService,
		similarityService:     similarityService,
		analyticsService:      analyticsService,
		logger:                logger,
		perfTracker:           perfTracker,
	}
}

// PostRecommendations answers a recommendation query for the given context
func (h *RecommendationHandlers) PostRecommendations(c *gin.Context) {
	start := time.Now()

	var req RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := config.DefaultRecommendationLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	userID := req.UserID
	if userID == "" {
		userID = h.analyticsService.CurrentUserID()
	}

	set := h.recommendationService.Recommend(&recommendation.Request{
		Type:        req.Type,
		ProductID:   req.ProductID,
		CategoryID:  req.CategoryID,
		CartItems:   req.CartItems,
		SearchQuery: req.SearchQuery,
	}, userID, limit)

	h.logger.Recommend().Info("Recommendation request completed", "type", req.Type, "count", len(set.Recommendations), "duration", time.Since(start))
	c.JSON(http.StatusOK, set)
}

// GetTrending returns the current trending product list
func (h *RecommendationHandlers) GetTrending(c *gin.Context) {
	ids := h.trendingService.TrendingProducts()
	c.JSON(http.StatusOK, gin.H{"productIds": ids, "count": len(ids)})
}

// GetProducts returns the full catalog
func (h *RecommendationHandlers) GetProducts(c *gin.Context) {
	products := h.similarityService.Products()
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetSimilar returns the products most similar to one catalog item
func (h *RecommendationHandlers) GetSimilar(c *gin.Context) {
	productID := c.Param("id")
	if _, ok := h.similarityService.Product(productID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	limit := config.DefaultRecommendationLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	similar := h.similarityService.TopSimilar(productID, limit)
	payload := make([]gin.H, 0, len(similar))
	for _, item := range similar {
		payload = append(payload, gin.H{"product": item.Product, "score": item.Score})
	}
	c.JSON(http.StatusOK, gin.H{"similar": payload, "count": len(payload)})
}
