package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "curto")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("IMAGE_FETCH_TIMEOUT", "")
	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.GreaterOrEqual(t, len(cfg.JWTSecret), 32)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, "odonto", cfg.MinioBucket)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.com , ,https://b.com")
	t.Setenv("IMAGE_FETCH_TIMEOUT", "3")
	t.Setenv("IMAGE_CACHE_TTL", "90s")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REQUEST_TIMEOUT_SEC", "abc")
	cfg := Load()
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.ImageFetchTimeout)
	assert.Equal(t, 90*time.Second, cfg.ImageCacheTTL)
	assert.Equal(t, 12, cfg.DBMaxConns)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 30, cfg.RequestTimeoutSec)
}
