// Package config provides centralized default values for MerchStack
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver       string
	DBPath         string
	LibSQLURL      string
	LibSQLToken    string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Auth Configuration
	JWTSecret     string
	AdminPassword string
	TokenLifetime time.Duration

	// Event Log Configuration
	EventLogCap       int
	BehaviorRetention time.Duration

	// Trending Configuration
	TrendingWindow time.Duration
	TrendingLimit  int

	// Recommendation Configuration
	DefaultRecommendationLimit int

	// Logging Configuration
	LogLevel   string
	LogVerbose bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "merchstack.db")
	LibSQLURL = getEnvString("LIBSQL_URL", "")
	LibSQLToken = getEnvString("LIBSQL_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)

	// Auth Configuration
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	TokenLifetime = getEnvDuration("TOKEN_LIFETIME", 24*time.Hour)

	// Event Log Configuration
	EventLogCap = getEnvInt("EVENT_LOG_CAP", 1000)
	BehaviorRetention = time.Duration(getEnvInt("BEHAVIOR_RETENTION_DAYS", 30)) * 24 * time.Hour

	// Trending Configuration
	TrendingWindow = time.Duration(getEnvInt("TRENDING_WINDOW_DAYS", 7)) * 24 * time.Hour
	TrendingLimit = getEnvInt("TRENDING_LIMIT", 20)

	// Recommendation Configuration
	DefaultRecommendationLimit = getEnvInt("DEFAULT_RECOMMENDATION_LIMIT", 8)

	// Logging Configuration
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogVerbose = getEnvBool("LOG_VERBOSE", false)
}
