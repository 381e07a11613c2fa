package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Slot engine configuration
	Slots SlotsConfig

	// Snapshot persistence
	Snapshot SnapshotConfig

	// Kafka event publishing
	Kafka KafkaConfig

	// Admin surface
	Admin AdminConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
}

// SlotsConfig holds the admission engine defaults.
type SlotsConfig struct {
	// Products is the initial catalogue; snapshot state overrides it.
	Products []ProductConfig

	DefaultRegularMax int
	DefaultExtraMax   int
	ExtraBasePrice    int

	ReservationTTL time.Duration
	SweepInterval  time.Duration
}

// ProductConfig seeds one sellable product.
type ProductConfig struct {
	Name           string
	RegularMax     int
	ExtraMax       int
	ExtraBasePrice int
}

// SnapshotConfig selects the persistence backend for the engine state.
type SnapshotConfig struct {
	// Backend is redis, postgres, or memory.
	Backend string
	Key     string
}

// KafkaConfig holds the slot event bus configuration. Empty brokers
// disable publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// AdminConfig holds the operator gate configuration.
type AdminConfig struct {
	// PasswordHash is the bcrypt hash of the operator password.
	PasswordHash string
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	ReserveRequests int           `json:"reserve_requests"`
	AdminRequests   int           `json:"admin_requests"`
	HealthRequests  int           `json:"health_requests"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "slotly_db"),
			User:     getEnv("DB_USER", "slotly_user"),
			Password: getEnv("DB_PASSWORD", "slotly_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},

		// Slot engine configuration
		Slots: SlotsConfig{
			Products:          parseProducts(getEnv("SLOT_PRODUCTS", "")),
			DefaultRegularMax: getIntEnv("SLOT_DEFAULT_REGULAR_MAX", 5),
			DefaultExtraMax:   getIntEnv("SLOT_DEFAULT_EXTRA_MAX", 0),
			ExtraBasePrice:    getIntEnv("SLOT_EXTRA_BASE_PRICE", 3),
			ReservationTTL:    getDurationEnv("SLOT_RESERVATION_TTL", 30*time.Minute),
			SweepInterval:     getDurationEnv("SLOT_SWEEP_INTERVAL", 60*time.Second),
		},

		// Snapshot persistence
		Snapshot: SnapshotConfig{
			Backend: getEnv("SNAPSHOT_BACKEND", "redis"),
			Key:     getEnv("SNAPSHOT_KEY", "slotly:snapshot"),
		},

		// Kafka event publishing
		Kafka: KafkaConfig{
			Brokers: getStringSliceEnv("KAFKA_BROKERS", []string{}),
			Topic:   getEnv("KAFKA_SLOT_EVENTS_TOPIC", "slot-events"),
		},

		// Admin surface
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    getEnv("ADMIN_JWT_SECRET", "your-super-secret-admin-key"),
			JWTExpiresIn: getDurationEnvSeconds("ADMIN_JWT_EXPIRES_IN", 1*time.Hour),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			ReserveRequests: getIntEnv("RATE_LIMIT_RESERVE_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 120),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// parseProducts parses SLOT_PRODUCTS entries of the form
// "name:regularMax:extraMax:extraBasePrice", comma-separated. Later
// fields are optional: "vip" and "vip:5:10:3" are both valid.
func parseProducts(value string) []ProductConfig {
	if value == "" {
		return nil
	}
	var products []ProductConfig
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		fields := strings.Split(entry, ":")
		p := ProductConfig{Name: strings.TrimSpace(fields[0])}
		if p.Name == "" {
			continue
		}
		if len(fields) > 1 {
			p.RegularMax, _ = strconv.Atoi(fields[1])
		}
		if len(fields) > 2 {
			p.ExtraMax, _ = strconv.Atoi(fields[2])
		}
		if len(fields) > 3 {
			p.ExtraBasePrice, _ = strconv.Atoi(fields[3])
		}
		products = append(products, p)
	}
	return products
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
