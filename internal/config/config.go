package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	defaultAccessSecret  = "super-secret-access-key"
	defaultRefreshSecret = "super-secret-refresh-key"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Inventory InventoryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME, default=Sweet Shop Management System API"`
	Env                   string `env:"APP_ENV, default=development"`
	Host                  string `env:"APP_HOST, default=0.0.0.0"`
	Port                  string `env:"APP_PORT, default=8000"`
	Version               string `env:"APP_VERSION, default=dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS, default=30"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS, default=10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS, default=2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS, default=true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS, default=30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS, default=300"`
}

// RedisConfig holds Redis connection values. An empty address disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL, default=info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	AccessSecret          string `env:"JWT_SECRET_KEY, default=super-secret-access-key"`
	RefreshSecret         string `env:"JWT_REFRESH_SECRET_KEY, default=super-secret-refresh-key"`
	AccessTokenTTLMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES, default=15"`
	RefreshTokenTTLDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS, default=7"`
	BcryptCost            int    `env:"AUTH_BCRYPT_COST, default=12"`
	AllowRoleSignup       bool   `env:"AUTH_ALLOW_ROLE_SIGNUP, default=false"`
	LoginMaxAttempts      int    `env:"AUTH_LOGIN_MAX_ATTEMPTS, default=5"`
	LoginWindowMinutes    int    `env:"AUTH_LOGIN_WINDOW_MINUTES, default=15"`
}

// RateLimitConfig bounds per-client request rates. A zero RPS disables it.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS, default=20"`
	Burst int     `env:"RATE_LIMIT_BURST, default=40"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=http://localhost:3000"`
}

// InventoryConfig tunes stock alerts.
type InventoryConfig struct {
	LowStockThreshold int `env:"INVENTORY_LOW_STOCK_THRESHOLD, default=5"`
}

// Load reads configuration from the environment (and an optional .env file).
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom resolves configuration through the given lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("token secrets must not be empty"))
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.App.IsProduction() && (c.Auth.AccessSecret == defaultAccessSecret || c.Auth.RefreshSecret == defaultRefreshSecret) {
		errs = append(errs, errors.New("default token secrets are not allowed in production"))
	}
	if c.App.IsProduction() && c.Postgres.DSN == "" {
		errs = append(errs, errors.New("POSTGRES_DSN is required in production; the in-memory store seeds a development admin"))
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 || c.Auth.RefreshTokenTTLDays <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range 4..31", c.Auth.BcryptCost))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsProduction reports whether the service runs in a production environment.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// AccessTTL is the lifetime of access tokens.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTTL is the lifetime of refresh tokens.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

// LoginWindow is the period over which failed logins are counted.
func (a AuthConfig) LoginWindow() time.Duration {
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}
