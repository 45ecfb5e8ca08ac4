package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"JWT_SECRET", "JWT_TTL",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"AI_TIMEOUT", "AI_BREAKER_FAILURES", "AI_BREAKER_TIMEOUT",
		"REDIS_URL", "PRIORITIZATION_CACHE_TTL", "CORS_ALLOWED_ORIGINS",
		"SUPER_ADMIN_EMAIL", "SUPER_ADMIN_PASSWORD",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, uint32(5), cfg.AIBreakerFailures)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DB_PORT", "6543")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("SUPER_ADMIN_EMAIL", "Boss@Example.com")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DBPort)
	assert.Equal(t, 5*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "boss@example.com", cfg.SuperAdminEmail)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("JWT_TTL", "forever")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
}

func TestLoad_BreakerFailuresMustBePositive(t *testing.T) {
	for _, v := range []string{"-1", "0"} {
		clearEnvVars(t)
		t.Setenv("AI_BREAKER_FAILURES", v)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, uint32(5), cfg.AIBreakerFailures, v)
	}

	clearEnvVars(t)
	t.Setenv("AI_BREAKER_FAILURES", "3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.AIBreakerFailures)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestConnString(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBPassword: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.ConnString())

	cfg.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.ConnString())
}
