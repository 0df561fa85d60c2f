package services

import (
	"sort"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/analytics"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// Action weights for the trending score. Purchases signal harder than cart
// adds, which signal harder than views.
const (
	trendingPurchaseWeight = 3
	trendingCartWeight     = 2
	trendingViewWeight     = 1
)

// TrendingService derives a ranked list of trending product ids from recent
// behavior. The list is recomputed inline on each call; there is no
// background refresh.
type TrendingService struct {
	behaviors *BehaviorService
	logger    *logging.ChanneledLogger
	window    time.Duration
	limit     int
}

// NewTrendingService creates the trending detector over the behavior log.
func NewTrendingService(behaviors *BehaviorService, logger *logging.ChanneledLogger) *TrendingService {
	return &TrendingService{
		behaviors: behaviors,
		logger:    logger,
		window:    config.TrendingWindow,
		limit:     config.TrendingLimit,
	}
}

// TrendingProducts returns up to the configured limit of product ids ranked
// by weighted recent activity, descending. Ties keep first-seen order.
func (s *TrendingService) TrendingProducts() []string {
	scores := make(map[string]int)
	var order []string

	for _, b := range s.behaviors.Recent(s.window) {
		if b.ProductID == "" {
			continue
		}

		var weight int
		switch b.Action {
		case analytics.ActionPurchase:
			weight = trendingPurchaseWeight
		case analytics.ActionCart:
			weight = trendingCartWeight
		case analytics.ActionView:
			weight = trendingViewWeight
		default:
			continue
		}

		if _, seen := scores[b.ProductID]; !seen {
			order = append(order, b.ProductID)
		}
		scores[b.ProductID] += weight
	}

	sort.SliceStable(order, func(i, j int) bool { return scores[order[i]] > scores[order[j]] })

	if len(order) > s.limit {
		order = order[:s.limit]
	}
	return order
}
