package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessBFF_Defaults(t *testing.T) {
	cfg, err := processBFF(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "piar-backoffice-bff", cfg.JWT.Issuer)
	assert.Equal(t, StoreMemory, cfg.AccountStore)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.Denylist)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Seed.Enabled())
}

func TestProcessBFF_Overrides(t *testing.T) {
	cfg, err := processBFF(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":          "s3cret",
		"JWT_EXPIRY":          "24h",
		"ACCOUNT_STORE":       "postgres",
		"TOKEN_DENYLIST":      "true",
		"SEED_ADMIN_CODE":     "ADM-1",
		"SEED_ADMIN_EMAIL":    "admin@example.com",
		"SEED_ADMIN_PASSWORD": "pw",
	}))
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, StorePostgres, cfg.AccountStore)
	assert.True(t, cfg.Denylist)
	assert.True(t, cfg.Seed.Enabled())
}

func TestProcessBFF_Errors(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret": {},
		"bad store":      {"JWT_SECRET": "x", "ACCOUNT_STORE": "sqlite"},
		"zero expiry":    {"JWT_SECRET": "x", "JWT_EXPIRY": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := processBFF(context.Background(), envconfig.MapLookuper(env))
			assert.Error(t, err)
		})
	}
}

func TestProcessBackoffice_Defaults(t *testing.T) {
	cfg, err := processBackoffice(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BFFURL)
	assert.Equal(t, 30*time.Second, cfg.BFFTimeout)
	assert.Equal(t, []string{"es", "ca", "en"}, cfg.Locales)
	assert.Equal(t, "ca", cfg.DefaultLocale)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "backoffice_session", cfg.SessionCookie)
	assert.Equal(t, "locale", cfg.LocaleCookie)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, StoreRedis, cfg.SessionStore)
}

func TestProcessBackoffice_InvalidSessionStore(t *testing.T) {
	_, err := processBackoffice(context.Background(), envconfig.MapLookuper(map[string]string{
		"SESSION_STORE": "mongo",
	}))
	assert.Error(t, err)
}

func TestProcessBackoffice_DefaultLocaleMustBeListed(t *testing.T) {
	_, err := processBackoffice(context.Background(), envconfig.MapLookuper(map[string]string{
		"LOCALES":        "es,en",
		"DEFAULT_LOCALE": "ca",
	}))
	assert.Error(t, err)
}

func TestIsDevelopment(t *testing.T) {
	assert.True(t, IsDevelopment("Development"))
	assert.False(t, IsDevelopment("production"))
}
