// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/merchstack/merchstack-go/internal/application/container"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/logging"
	"github.com/merchstack/merchstack-go/internal/infrastructure/observability/performance"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/catalog"
	"github.com/merchstack/merchstack-go/internal/infrastructure/persistence/kv"
	"github.com/merchstack/merchstack-go/internal/presentation/http/server"
	"github.com/merchstack/merchstack-go/pkg/config"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("\033[32m" + `

  ███╗   ███╗███████╗██████╗  ██████╗██╗  ██╗███████╗████████╗ █████╗  ██████╗██╗  ██╗
  ████╗ ████║██╔════╝██╔══██╗██╔════╝██║  ██║██╔════╝╚══██╔══╝██╔══██╗██╔════╝██║ ██╔╝
  ██╔████╔██║█████╗  ██████╔╝██║     ███████║███████╗   ██║   ███████║██║     █████╔╝
  ██║╚██╔╝██║██╔══╝  ██╔══██╗██║     ██╔══██║╚════██║   ██║   ██╔══██║██║     ██╔═██╗
  ██║ ╚═╝ ██║███████╗██║  ██║╚██████╗██║  ██║███████║   ██║   ██║  ██║╚██████╗██║  ██╗
  ╚═╝     ╚═╝╚══════╝╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═╝ ╚═════╝╚═╝  ╚═╝
` + "\033[0m")

	// Step 1: Structured logging
	logger, err := logging.NewChanneledLogger(loggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	perfTracker := performance.NewTracker(1000)

	// Step 2: Durable key-value store
	driverName, dataSourceName := resolveDatabase()
	logger.Startup().Info("Opening durable key-value store", "driver", driverName)

	store, err := kv.NewSQLStore(driverName, dataSourceName, logger)
	if err != nil {
		return fmt.Errorf("failed to open key-value store: %w", err)
	}

	// Step 3: Product catalog
	logger.Startup().Info("Loading product catalog...")
	startCatalogTime := time.Now()

	catalogRepo, err := catalog.NewSQLRepository(driverName, dataSourceName, logger)
	if err != nil {
		return fmt.Errorf("failed to load product catalog: %w", err)
	}
	logger.Startup().Info("Product catalog loaded", "duration", time.Since(startCatalogTime))

	// Step 4: Dependency injection container, which warms the similarity
	// matrix and restores persisted engine state
	logger.Startup().Info("Initializing dependency injection container...")
	startContainerTime := time.Now()

	appContainer, err := container.NewContainer(store, catalogRepo, logger, perfTracker)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	logger.Startup().Info("Dependency injection container created with singleton services", "duration", time.Since(startContainerTime))

	// Step 5: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	// The session contract requires an explicit end on teardown, which also
	// forces a final persist of the event log.
	appContainer.AnalyticsService.EndSession()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if err := store.Close(); err != nil {
		logger.Shutdown().Error("Error closing key-value store", "error", err.Error())
	}
	if err := catalogRepo.Close(); err != nil {
		logger.Shutdown().Error("Error closing catalog", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// resolveDatabase picks the SQL driver and DSN: a configured libsql URL wins,
// otherwise the local sqlite file is used.
func resolveDatabase() (string, string) {
	if config.LibSQLURL != "" {
		dsn := config.LibSQLURL
		if config.LibSQLToken != "" {
			dsn += "?authToken=" + config.LibSQLToken
		}
		return "libsql", dsn
	}
	return config.DBDriver, config.DBPath
}

// loggerConfig maps the environment-driven log settings onto the channeled
// logger configuration.
func loggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultLoggerConfig()
	switch strings.ToLower(config.LogLevel) {
	case "debug":
		cfg.DefaultLevel = slog.LevelDebug
	case "warn":
		cfg.DefaultLevel = slog.LevelWarn
	case "error":
		cfg.DefaultLevel = slog.LevelError
	}
	if config.LogVerbose {
		cfg.DefaultLevel = slog.LevelDebug
	}
	return cfg
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
}
