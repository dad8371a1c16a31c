package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                 string
	DatabaseURL          string
	JWTSecret            string
	AllowOrigins         []string
	LogLevel             string
	LogFormat            string
	LogstashTCPAddr      string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	RedisPrefix          string
	ItineraryCacheTTL    time.Duration
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinIOBucketCatalog   string
	MinIOPublicURL       string
	StrictReferences     bool
	EnableItineraryWrite bool
	SwaggerSpecPath      string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	redisDB := 0
	if v, err := strconv.Atoi(getenv("REDIS_DB", "0")); err == nil && v >= 0 {
		redisDB = v
	}

	cacheTTL := 10 * time.Minute
	if v, err := time.ParseDuration(getenv("ITINERARY_CACHE_TTL", "10m")); err == nil && v > 0 {
		cacheTTL = v
	}

	return Config{
		Port:                 getenv("PORT", "8080"),
		DatabaseURL:          must("DATABASE_URL"),
		JWTSecret:            must("JWT_SECRET"),
		AllowOrigins:         splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogFormat:            getenv("LOG_FORMAT", "json"),
		LogstashTCPAddr:      getenv("LOGSTASH_TCP_ADDR", ""),
		RedisAddr:            getenv("REDIS_ADDR", ""),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		RedisDB:              redisDB,
		RedisPrefix:          getenv("REDIS_PREFIX", "tourcat"),
		ItineraryCacheTTL:    cacheTTL,
		MinIOEndpoint:        getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketCatalog:   getenv("MINIO_BUCKET_CATALOG", "tourcat-catalog"),
		MinIOPublicURL:       getenv("MINIO_PUBLIC_URL", ""),
		StrictReferences:     getenv("ITINERARY_STRICT_REFERENCES", "false") == "true",
		EnableItineraryWrite: getenv("ENABLE_ITINERARY_WRITE", "true") == "true",
		SwaggerSpecPath:      getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),
	}
}

// MigrateConfig loads only what the migrate command needs.
func MigrateConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	return Config{
		DatabaseURL: must("DATABASE_URL"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
	}
}

func (c Config) MinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
