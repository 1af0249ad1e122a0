package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("DOCX_ENGINE", "")
	t.Setenv("JWT_EXPIRES_IN", "")

	cfg := Load()
	assert.Equal(t, "", cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL)
	assert.Equal(t, "ooxml", cfg.DocxEngine)
	assert.Equal(t, time.Hour, cfg.JWTTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "GitHub")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("GITHUB_TIMEOUT", "nonsense")
	t.Setenv("WRITE_RETRIES", "7")
	t.Setenv("JWT_EXPIRES_IN", "15")

	cfg := Load()
	assert.Equal(t, "github", cfg.StoreBackend)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.GitHubTimeout)
	assert.Equal(t, 7, cfg.WriteRetries)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL())
}

func TestAdminEnabled(t *testing.T) {
	cases := []struct {
		password, secret string
		want             bool
	}{
		{"", "", false},
		{"", "s3cret", false},
		{"letmein", "", false},
		{"letmein", DefaultJWTSecret, false},
		{"letmein", "s3cret", true},
	}
	for _, tc := range cases {
		cfg := &Config{AdminPassword: tc.password, JWTSecret: tc.secret}
		assert.Equal(t, tc.want, cfg.AdminEnabled(), "password=%q secret=%q", tc.password, tc.secret)
	}
}

func TestLoad_DefaultSecretDisablesAdmin(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "letmein")
	t.Setenv("JWT_SECRET", "")
	cfg := Load()
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.False(t, cfg.AdminEnabled())
}
