package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreMemory   = "memory"
	StorePostgres = "postgres"

	DirectoryMemory = "memory"
	DirectoryRedis  = "redis"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Monitor      MonitorConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name           string
	Env            string
	Host           string
	Port           string
	Version        string
	RequestTimeout time.Duration
}

// StoreConfig selects the request store and user directory backends.
type StoreConfig struct {
	Driver        string
	UserDirectory string
	SeedDemoData  bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	MigrationsDir   string
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines demo token parameters.
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

// SLAConfig carries the lifecycle policy knobs.
type SLAConfig struct {
	Emergency         time.Duration
	High              time.Duration
	Normal            time.Duration
	EmergencyCooldown time.Duration
	NearDeadline      time.Duration
	AckTarget         time.Duration
	StampAll          bool
}

// MonitorConfig controls the SLA breach scanner.
type MonitorConfig struct {
	Enabled  bool
	Schedule string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			Env:            v.GetString("APP_ENV"),
			Host:           v.GetString("APP_HOST"),
			Port:           v.GetString("APP_PORT"),
			Version:        v.GetString("APP_VERSION"),
			RequestTimeout: parseDuration(v.GetString("HTTP_REQUEST_TIMEOUT"), 30*time.Second),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("STORE_DRIVER")),
			UserDirectory: strings.ToLower(v.GetString("USER_DIRECTORY")),
			SeedDemoData:  v.GetBool("SEED_DEMO_DATA"),
		},
		Postgres: PostgresConfig{
			DSN:             v.GetString("POSTGRES_DSN"),
			MaxConns:        v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:        v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:   v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			MigrationsDir:   v.GetString("POSTGRES_MIGRATIONS_DIR"),
			ConnMaxIdleTime: parseDuration(v.GetString("POSTGRES_CONN_MAX_IDLE"), 30*time.Second),
			ConnMaxLifetime: parseDuration(v.GetString("POSTGRES_CONN_MAX_LIFE"), 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTL: parseDuration(v.GetString("AUTH_ACCESS_TOKEN_TTL"), time.Hour),
		},
		SLA: SLAConfig{
			Emergency:         parseDuration(v.GetString("SLA_EMERGENCY"), time.Hour),
			High:              parseDuration(v.GetString("SLA_HIGH"), 4*time.Hour),
			Normal:            parseDuration(v.GetString("SLA_NORMAL"), 24*time.Hour),
			EmergencyCooldown: parseDuration(v.GetString("EMERGENCY_COOLDOWN"), 5*time.Minute),
			NearDeadline:      parseDuration(v.GetString("SLA_NEAR_DEADLINE"), 30*time.Minute),
			AckTarget:         parseDuration(v.GetString("ACK_TARGET"), 15*time.Minute),
			StampAll:          v.GetBool("RATE_LIMIT_STAMP_ALL"),
		},
		Monitor: MonitorConfig{
			Enabled:  v.GetBool("SLA_MONITOR_ENABLED"),
			Schedule: v.GetString("SLA_MONITOR_SCHEDULE"),
		},
		Notification: NotificationConfig{
			EmailFrom:  v.GetString("NOTIFY_EMAIL_FROM"),
			WebhookURL: v.GetString("NOTIFY_WEBHOOK_URL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "campus-assist")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")

	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("USER_DIRECTORY", DirectoryMemory)
	v.SetDefault("SEED_DEMO_DATA", false)

	v.SetDefault("POSTGRES_DSN", "")
	v.SetDefault("POSTGRES_MAX_CONNS", 10)
	v.SetDefault("POSTGRES_MIN_CONNS", 2)
	v.SetDefault("POSTGRES_RUN_MIGRATIONS", true)
	v.SetDefault("POSTGRES_MIGRATIONS_DIR", "migrations")
	v.SetDefault("POSTGRES_CONN_MAX_IDLE", "30s")
	v.SetDefault("POSTGRES_CONN_MAX_LIFE", "5m")

	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AUTH_JWT_SECRET", "dev-secret")
	v.SetDefault("AUTH_ACCESS_TOKEN_TTL", "1h")

	v.SetDefault("SLA_EMERGENCY", "1h")
	v.SetDefault("SLA_HIGH", "4h")
	v.SetDefault("SLA_NORMAL", "24h")
	v.SetDefault("EMERGENCY_COOLDOWN", "5m")
	v.SetDefault("SLA_NEAR_DEADLINE", "30m")
	v.SetDefault("ACK_TARGET", "15m")
	v.SetDefault("RATE_LIMIT_STAMP_ALL", false)

	v.SetDefault("SLA_MONITOR_ENABLED", true)
	v.SetDefault("SLA_MONITOR_SCHEDULE", "@every 10s")

	v.SetDefault("NOTIFY_EMAIL_FROM", "noreply@campus.example")
	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Store.UserDirectory {
	case DirectoryMemory, DirectoryRedis:
	default:
		return fmt.Errorf("invalid USER_DIRECTORY %q", c.Store.UserDirectory)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
