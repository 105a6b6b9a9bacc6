package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store backends selectable through ACCOUNT_STORE and SESSION_STORE.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// BFF is the configuration of the auth API.
type BFF struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT          JWTConfig
	AccountStore string `env:"ACCOUNT_STORE,  default=memory"`
	BcryptCost   int    `env:"BCRYPT_COST,    default=10"`
	Denylist     bool   `env:"TOKEN_DENYLIST, default=false"`

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Seed     SeedConfig
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET, required"`
	Expiry time.Duration `env:"JWT_EXPIRY, default=1h"`
	Issuer string        `env:"JWT_ISSUER, default=piar-backoffice-bff"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=backoffice"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN, default=postgres://localhost:5432/backoffice?sslmode=disable"`
}

// RedisConfig is shared by both binaries.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// SeedConfig describes an optional bootstrap admin account.
type SeedConfig struct {
	AccountCode string `env:"SEED_ADMIN_CODE"`
	Email       string `env:"SEED_ADMIN_EMAIL"`
	Password    string `env:"SEED_ADMIN_PASSWORD"`
}

// Enabled reports whether every seed field is set.
func (s SeedConfig) Enabled() bool {
	return s.AccountCode != "" && s.Email != "" && s.Password != ""
}

// Backoffice is the configuration of the web gateway.
type Backoffice struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	BFFURL     string        `env:"BFF_URL,     default=http://localhost:8080"`
	BFFTimeout time.Duration `env:"BFF_TIMEOUT, default=30s"`

	Locales       []string `env:"LOCALES,        default=es,ca,en"`
	DefaultLocale string   `env:"DEFAULT_LOCALE, default=ca"`

	SessionTTL    time.Duration `env:"SESSION_TTL,    default=24h"`
	SessionCookie string        `env:"SESSION_COOKIE, default=backoffice_session"`
	LocaleCookie  string        `env:"LOCALE_COOKIE,  default=locale"`
	CookieSecure  bool          `env:"COOKIE_SECURE,  default=false"`

	// SessionStore is "redis" or "memory".
	SessionStore string `env:"SESSION_STORE, default=redis"`
	Redis        RedisConfig
}

// IsDevelopment reports whether pretty logging should be used.
func IsDevelopment(env string) bool {
	return strings.EqualFold(env, "development")
}

// LoadBFF reads the BFF configuration from the environment, after loading an
// optional .env file.
func LoadBFF(ctx context.Context) (*BFF, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return processBFF(ctx, envconfig.OsLookuper())
}

// LoadBackoffice reads the gateway configuration from the environment, after
// loading an optional .env file.
func LoadBackoffice(ctx context.Context) (*Backoffice, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return processBackoffice(ctx, envconfig.OsLookuper())
}

func processBFF(ctx context.Context, l envconfig.Lookuper) (*BFF, error) {
	var cfg BFF
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch cfg.AccountStore {
	case StoreMemory, StoreMongo, StorePostgres:
	default:
		return nil, fmt.Errorf("config: invalid ACCOUNT_STORE %q", cfg.AccountStore)
	}
	if cfg.JWT.Expiry <= 0 {
		return nil, errors.New("config: JWT_EXPIRY must be positive")
	}
	return &cfg, nil
}

func processBackoffice(ctx context.Context, l envconfig.Lookuper) (*Backoffice, error) {
	var cfg Backoffice
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(cfg.Locales) == 0 {
		return nil, errors.New("config: LOCALES cannot be empty")
	}
	found := false
	for _, loc := range cfg.Locales {
		if loc == cfg.DefaultLocale {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("config: DEFAULT_LOCALE %q is not in LOCALES", cfg.DefaultLocale)
	}
	if cfg.SessionStore != StoreRedis && cfg.SessionStore != StoreMemory {
		return nil, fmt.Errorf("config: invalid SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("config: SESSION_TTL must be positive")
	}
	return &cfg, nil
}

// loadDotEnv tolerates a missing .env file.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: load .env: %w", err)
	}
	return nil
}
