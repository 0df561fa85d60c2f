// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/merchstack/merchstack-go/internal/application/services"
	"github.com/merchstack/merchstack-go/internal/domain/repositories"
	"github.com/merchstack/merchstack-go/internal/infrastructure/messaging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
)

// Container holds all singleton services and infrastructure dependencies.
// The host application owns exactly one Container per process and passes it
// where references are needed.
type Container struct {
	// Engine services
	AnalyticsService      *services.AnalyticsService
	ProfileService        *services.ProfileService
	BehaviorService       *services.BehaviorService
	SimilarityService     *services.SimilarityService
	TrendingService       *services.TrendingService
	RecommendationService *services.RecommendationService
	ExperimentService     *services.ExperimentService
	ResultsService        *services.ResultsService
	AuthService           *services.AuthService

	// Infrastructure dependencies
	Store       kv.Store
	Hub         *messaging.WSHub
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services. The catalog must be
// loadable; an engine without a catalog cannot serve recommendations, so
// construction fails fast instead of degrading per-call.
func NewContainer(store kv.Store, catalogRepo repositories.CatalogRepository, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*Container, error) {
	hub := messaging.NewWSHub(logger)

	analyticsService := services.NewAnalyticsService(store, hub, logger, perfTracker)
	profileService := services.NewProfileService(store, logger)
	behaviorService := services.NewBehaviorService(store, analyticsService, profileService, logger)

	similarityService, err := services.NewSimilarityService(catalogRepo, logger, perfTracker)
	if err != nil {
		return nil, err
	}

	trendingService := services.NewTrendingService(behaviorService, logger)
	experimentService := services.NewExperimentService(store, analyticsService, logger, perfTracker)

	return &Container{
		AnalyticsService:      analyticsService,
		ProfileService:        profileService,
		BehaviorService:       behaviorService,
		SimilarityService:     similarityService,
		TrendingService:       trendingService,
		RecommendationService: services.NewRecommendationService(similarityService, profileService, trendingService, behaviorService, logger, perfTracker),
		ExperimentService:     experimentService,
		ResultsService:        services.NewResultsService(experimentService, logger),
		AuthService:           services.NewAuthService(logger),

		Store:       store,
		Hub:         hub,
		Logger:      logger,
		PerfTracker: perfTracker,
	}, nil
}
