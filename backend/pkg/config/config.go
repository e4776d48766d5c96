package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port     string
	Env      string
	LogLevel string

	// Storage
	Store         string // neo4j or memory
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Board
	SpawnX      float64 // Left edge of the area new people appear in
	SpawnY      float64 // Top edge of the area new people appear in
	SpawnWidth  float64
	SpawnHeight float64

	// Live subscription
	LiveBuffer   int           // Snapshots queued per subscriber before dropping
	WriteTimeout time.Duration // Deadline for a single store write issued by a client

	// Client
	APIBaseURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", ""),
		Store:         getEnv("STORE", StoreNeo4j),
		Neo4jURI:      getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", ""),
		SpawnX:        getEnvFloat("SPAWN_X", 100),
		SpawnY:        getEnvFloat("SPAWN_Y", 100),
		SpawnWidth:    getEnvFloat("SPAWN_WIDTH", 500),
		SpawnHeight:   getEnvFloat("SPAWN_HEIGHT", 400),
		LiveBuffer:    getEnvInt("LIVE_BUFFER", 8),
		WriteTimeout:  getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.Store {
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required")
		}
		if c.Neo4jUser == "" {
			return fmt.Errorf("NEO4J_USER is required")
		}
		if c.Neo4jPassword == "" {
			return fmt.Errorf("NEO4J_PASSWORD is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreNeo4j, StoreMemory, c.Store)
	}
	if c.SpawnWidth < 0 || c.SpawnHeight < 0 {
		return fmt.Errorf("SPAWN_WIDTH and SPAWN_HEIGHT must not be negative")
	}
	if c.LiveBuffer < 1 {
		return fmt.Errorf("LIVE_BUFFER must be at least 1")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
