package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/umtracker/platform/pkg/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxRequestBody int64
	StaticDir      string
	CORSOrigins    []string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DatabaseURL      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheEnabled  bool
	CacheTTL      time.Duration

	// Kafka
	KafkaBrokers      []string
	ImportEventsTopic string

	// Auth
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Rate limiting
	RateLimit      string
	RateLimitStore string

	// Import pipeline
	ImportMaxConcurrency int
	ImportFinishAttempts int
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete POSTGRES_* keys.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresDB,
		c.PostgresPort,
		c.PostgresSSLMode,
	)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.ServerHost, c.ServerPort)
}

// fileValues holds the optional CONFIG_FILE overlay. Environment variables win over it.
var fileValues map[string]string

func Load() *Config {
	_ = godotenv.Load()
	fileValues = loadFile(os.Getenv("CONFIG_FILE"))

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", getEnv("PORT", "3000")),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 32*1024*1024)),
		StaticDir:      getEnv("STATIC_DIR", "static"),
		CORSOrigins:    getStringSliceEnv("CORS_ORIGINS", []string{"http://localhost:5173"}),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "circuits"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheEnabled:  getBoolEnv("CACHE_ENABLED", false),
		CacheTTL:      getDuration("CACHE_TTL", 5*time.Minute),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		ImportEventsTopic: getEnv("IMPORT_EVENTS_TOPIC", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "circuit-tracker"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		RateLimit:      getEnv("RATE_LIMIT", "5-S"),
		RateLimitStore: getEnv("RATE_LIMIT_STORE", "memory"),

		ImportMaxConcurrency: getIntEnv("IMPORT_MAX_CONCURRENCY", 0),
		ImportFinishAttempts: getIntEnv("IMPORT_FINISH_ATTEMPTS", 3),
	}
}

// loadFile reads a flat YAML mapping of the same keys the environment uses.
func loadFile(path string) map[string]string {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("config file not readable, using environment only")
		return nil
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		logger.Log.WithError(err).WithField("path", path).Warn("config file is not a flat yaml mapping, ignoring it")
		return nil
	}
	return values
}

func lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fileValues[key]
}

func getEnv(key, defaultValue string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := lookup(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := lookup(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := lookup(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := lookup(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
