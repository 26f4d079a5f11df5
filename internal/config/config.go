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

// DevJWTSecret is the fallback signing secret; it is refused in production.
const DevJWTSecret = "dev-secret"

// Record policies understood by the authorization layer.
const (
	RecordPolicyOwner = "owner"
	RecordPolicyOpen  = "open"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Authz    AuthzConfig
	Throttle ThrottleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	StaticDir             string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	SessionTTLHours int
	BcryptCost      int
	CookieName      string
}

// SessionConfig names the surfaces the session middleware redirects between.
type SessionConfig struct {
	LoginPath    string
	RegisterPath string
	LandingPath  string
}

// AuthzConfig selects the per-record policy.
type AuthzConfig struct {
	RecordPolicy    string
	PolicyFile      string
	LookupTimeoutMs int
}

// ThrottleConfig bounds failed login attempts per email.
type ThrottleConfig struct {
	MaxAttempts   int
	WindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "project-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			StaticDir:             os.Getenv("APP_STATIC_DIR"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", DevJWTSecret),
			SessionTTLHours: getEnvAsInt("AUTH_SESSION_TTL_HOURS", 24*7),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 10),
			CookieName:      getEnv("AUTH_COOKIE_NAME", "auth_token"),
		},
		Session: SessionConfig{
			LoginPath:    getEnv("SESSION_LOGIN_PATH", "/"),
			RegisterPath: getEnv("SESSION_REGISTER_PATH", "/register"),
			LandingPath:  getEnv("SESSION_LANDING_PATH", "/dashboard"),
		},
		Authz: AuthzConfig{
			RecordPolicy:    strings.ToLower(getEnv("AUTHZ_RECORD_POLICY", RecordPolicyOwner)),
			PolicyFile:      os.Getenv("AUTHZ_POLICY_FILE"),
			LookupTimeoutMs: getEnvAsInt("AUTHZ_LOOKUP_TIMEOUT_MS", 2000),
		},
		Throttle: ThrottleConfig{
			MaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			WindowSeconds: getEnvAsInt("LOGIN_WINDOW_SECONDS", 900),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that are unsafe to run with.
func (c *Config) Validate() error {
	var errs []error
	if c.App.IsProduction() && c.Auth.JWTSecret == DevJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must not be empty"))
	}
	switch c.Authz.RecordPolicy {
	case RecordPolicyOwner, RecordPolicyOpen:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTHZ_RECORD_POLICY %q", c.Authz.RecordPolicy))
	}
	if c.Auth.CookieName == "" {
		errs = append(errs, errors.New("AUTH_COOKIE_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the deployment runs in a production-like environment.
func (a AppConfig) IsProduction() bool {
	switch strings.ToLower(a.Env) {
	case "production", "prod":
		return true
	}
	return false
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL is the fixed, non-sliding session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// LookupTimeout bounds the identity-resolution query.
func (a AuthzConfig) LookupTimeout() time.Duration {
	if a.LookupTimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(a.LookupTimeoutMs) * time.Millisecond
}

// Window returns the throttle counting window.
func (t ThrottleConfig) Window() time.Duration {
	if t.WindowSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(t.WindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
