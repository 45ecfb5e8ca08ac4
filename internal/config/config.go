package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPAddr string

	DatabaseURL string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string

	JWTSecret string
	JWTTTL    time.Duration

	OpenAIKey         string
	OpenAIModel       string
	OpenAIBaseURL     string
	AITimeout         time.Duration
	AIBreakerFailures uint32
	AIBreakerTimeout  time.Duration

	// Empty disables the prioritization cache.
	RedisURL               string
	PrioritizationCacheTTL time.Duration

	CORSAllowedOrigins []string

	SuperAdminEmail    string
	SuperAdminPassword string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getIntEnv("DB_PORT", 5432),
		DBUser:      getEnv("DB_USER", "agency"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "agency"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDurationEnv("JWT_TTL", 7*24*time.Hour),

		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AITimeout:         getDurationEnv("AI_TIMEOUT", 30*time.Second),
		AIBreakerFailures: uint32(getPositiveIntEnv("AI_BREAKER_FAILURES", 5)),
		AIBreakerTimeout:  getDurationEnv("AI_BREAKER_TIMEOUT", time.Minute),

		RedisURL:               getEnv("REDIS_URL", ""),
		PrioritizationCacheTTL: getDurationEnv("PRIORITIZATION_CACHE_TTL", 10*time.Minute),

		CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),

		SuperAdminEmail:    strings.ToLower(getEnv("SUPER_ADMIN_EMAIL", "")),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", ""),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ConnString returns DATABASE_URL when set, otherwise a key/value DSN built
// from the DB_* variables.
func (c *Config) ConnString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getPositiveIntEnv is getIntEnv that also rejects values below 1.
func getPositiveIntEnv(key string, defaultValue int) int {
	if i := getIntEnv(key, defaultValue); i > 0 {
		return i
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
