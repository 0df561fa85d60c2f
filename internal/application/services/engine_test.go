package services

import (
	"testing"
	"time"

	"github.com/merchstack/merchstack-go/internal/domain/entities/catalog"
	"github.com/merchstack/merchstack-go/internal/infrastructure/messaging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	infracatalog "github.com/merchstack/merchstack-go/internal/infrastructure/persistence/catalog"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

// testEngine bundles a fully wired engine over an in-memory store for tests.
type testEngine struct {
	store           kv.Store
	analytics       *AnalyticsService
	profiles        *ProfileService
	behaviors       *BehaviorService
	similarity      *SimilarityService
	trending        *TrendingService
	recommendations *RecommendationService
	experiments     *ExperimentService
	results         *ResultsService
}

func testCatalog() []*catalog.Product {
	return []*catalog.Product{
		{ID: "m-001", Name: "Oxford Shirt", Description: "Classic cotton oxford shirt", Category: "men", Price: 49.99, Rating: 4.5, Reviews: 210},
		{ID: "m-002", Name: "Slim Chinos", Description: "Stretch slim-fit chinos", Category: "men", Price: 59.99, Rating: 4.2, Reviews: 140},
		{ID: "m-003", Name: "Wool Sweater", Description: "Merino wool crew neck", Category: "men", Price: 89.99, Rating: 4.7, Reviews: 95},
		{ID: "w-001", Name: "Wrap Dress", Description: "Floral wrap dress", Category: "women", Price: 79.99, Rating: 4.6, Reviews: 320},
		{ID: "w-002", Name: "Denim Jacket", Description: "Light-wash denim jacket", Category: "women", Price: 69.99, Rating: 4.3, Reviews: 180},
		{ID: "a-001", Name: "Leather Belt", Description: "Full-grain leather belt", Category: "accessories", Price: 34.99, Rating: 4.4, Reviews: 260},
		{ID: "a-002", Name: "Canvas Tote", Description: "Heavy canvas tote bag", Category: "accessories", Price: 24.99, Rating: 4.1, Reviews: 75},
	}
}

// newTestEngine wires the full engine over the given store. A fixed clock is
// installed on the time-sensitive services; tests move it via advance.
func newTestEngine(t *testing.T, store kv.Store) *testEngine {
	t.Helper()

	logger := logging.NewDiscardLogger()
	tracker := performance.NewTracker(100)

	analytics := NewAnalyticsService(store, messaging.NopFeed{}, logger, tracker)
	profiles := NewProfileService(store, logger)
	behaviors := NewBehaviorService(store, analytics, profiles, logger)

	similarity, err := NewSimilarityService(infracatalog.NewStaticRepository(testCatalog()), logger, tracker)
	if err != nil {
		t.Fatalf("NewSimilarityService() error = %v", err)
	}

	trending := NewTrendingService(behaviors, logger)
	experiments := NewExperimentService(store, analytics, logger, tracker)

	return &testEngine{
		store:           store,
		analytics:       analytics,
		profiles:        profiles,
		behaviors:       behaviors,
		similarity:      similarity,
		trending:        trending,
		recommendations: NewRecommendationService(similarity, profiles, trending, behaviors, logger, tracker),
		experiments:     experiments,
		results:         NewResultsService(experiments, logger),
	}
}

// setClock pins every time-sensitive service to the given instant.
func (e *testEngine) setClock(at time.Time) {
	clock := func() time.Time { return at }
	e.analytics.now = clock
	e.behaviors.now = clock
	e.experiments.now = clock
}
