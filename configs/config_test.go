package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	for _, key := range []string{"APP_PORT", "REPO_BACKEND", "JWT_TTL", "REQUEST_TIMEOUT", "REDIS_HOST", "LOG_DIR"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	assert.Equal(t, 3004, cfg.AppPort)
	assert.Equal(t, "postgres", cfg.RepoBackend)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("REPO_BACKEND", "memory")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "memory", cfg.RepoBackend)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 100, cfg.RateLimitMax, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	valid := Config{JWTSecret: "s", RepoBackend: "memory", RequestTimeout: time.Second}
	require.NoError(t, valid.Validate())

	pg := valid
	pg.RepoBackend = "postgres"
	assert.ErrorContains(t, pg.Validate(), "DB_USER and DB_NAME")
	pg.DBUser, pg.DBName = "kanban", "kanban"
	assert.NoError(t, pg.Validate())

	bad := Config{RepoBackend: "sqlite"}
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
	assert.ErrorContains(t, err, "REPO_BACKEND must be postgres or memory")
	assert.ErrorContains(t, err, "REQUEST_TIMEOUT must be positive")
}
