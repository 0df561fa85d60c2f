// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/container"
	"github.com/merchstack/merchstack-go/internal/presentation/http/handlers"
	"github.com/merchstack/merchstack-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	eventHandlers := handlers.NewEventHandlers(container.AnalyticsService, container.BehaviorService, container.Logger, container.PerfTracker)
	recommendationHandlers := handlers.NewRecommendationHandlers(container.RecommendationService, container.TrendingService, container.SimilarityService, container.AnalyticsService, container.Logger, container.PerfTracker)
	experimentHandlers := handlers.NewExperimentHandlers(container.ExperimentService, container.ResultsService, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.Hub, container.Logger, container.PerfTracker)

	api := r.Group("/api/v1")
	{
		api.GET("/health", systemHandlers.GetHealth)
		api.GET("/live", systemHandlers.GetLive)

		// Authentication
		api.POST("/auth/login", authHandlers.PostLogin)

		// Event and behavior tracking
		events := api.Group("/events")
		{
			events.POST("", eventHandlers.PostEvent)
			events.POST("/purchase", eventHandlers.PostPurchase)
			events.POST("/behavior", eventHandlers.PostBehavior)
			events.POST("/identify", eventHandlers.PostIdentify)
		}

		// Session lifecycle
		session := api.Group("/session")
		{
			session.GET("", eventHandlers.GetSession)
			session.POST("/start", eventHandlers.PostSessionStart)
			session.POST("/end", eventHandlers.PostSessionEnd)
		}

		// Catalog and recommendations
		api.GET("/products", recommendationHandlers.GetProducts)
		api.GET("/products/:id/similar", recommendationHandlers.GetSimilar)
		api.GET("/trending", recommendationHandlers.GetTrending)
		api.POST("/recommendations", recommendationHandlers.PostRecommendations)

		// Public experiment surface
		experiments := api.Group("/experiments")
		{
			experiments.GET("/:id/variant", experimentHandlers.GetVariant)
			experiments.GET("/:id/config", experimentHandlers.GetVariantConfig)
			experiments.POST("/:id/convert", experimentHandlers.PostConversion)
		}

		// Admin endpoints
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(container.AuthService))
		{
			admin.GET("/events", eventHandlers.GetEvents)
			admin.GET("/dashboard", eventHandlers.GetDashboard)

			admin.POST("/experiments", experimentHandlers.PostExperiment)
			admin.GET("/experiments", experimentHandlers.GetExperiments)
			admin.GET("/experiments/:id", experimentHandlers.GetExperiment)
			admin.POST("/experiments/:id/start", experimentHandlers.PostStart)
			admin.POST("/experiments/:id/stop", experimentHandlers.PostStop)
			admin.GET("/experiments/:id/results", experimentHandlers.GetResults)

			admin.GET("/performance", systemHandlers.GetPerformance)
			admin.GET("/logs/levels", systemHandlers.GetLogLevels)
			admin.POST("/logs/levels", systemHandlers.PostLogLevel)
		}
	}

	return r
}
