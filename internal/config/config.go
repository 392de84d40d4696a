package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	Name     string `envconfig:"DB_NAME" default:"payroll"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	AccessExpiration time.Duration `envconfig:"JWT_ACCESS_EXPIRATION_TIME" default:"1h"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int      `envconfig:"APP_PORT" default:"8080"`
	Env                string   `envconfig:"APP_ENV" default:"development"`
	Version            string   `envconfig:"APP_VERSION" default:"dev"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins     []string `envconfig:"APP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMinute int      `envconfig:"APP_RATE_LIMIT_PER_MINUTE" default:"30"`
}

// RedisConfig enables the cross-instance pay run lock. An empty address
// disables it.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type PayrollConfig struct {
	GenerateWorkers      int           `envconfig:"PAYROLL_GENERATE_WORKERS" default:"8"`
	RunLockTTL           time.Duration `envconfig:"PAYROLL_RUN_LOCK_TTL" default:"5m"`
	ChallanDueDay        int           `envconfig:"PAYROLL_CHALLAN_DUE_DAY" default:"15"`
	OverdueSweepInterval time.Duration `envconfig:"PAYROLL_OVERDUE_SWEEP_INTERVAL" default:"1h"`
	DefaultJurisdiction  string        `envconfig:"PAYROLL_DEFAULT_JURISDICTION" default:"IN"`
	MigrateOnStart       bool          `envconfig:"PAYROLL_MIGRATE_ON_START" default:"true"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	sections := []interface{}{&cfg.Database, &cfg.JWT, &cfg.App, &cfg.Redis, &cfg.Payroll}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.Database.Password == "" {
		problems = append(problems, "DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		problems = append(problems, "JWT_SECRET_KEY is required")
	}
	if c.Payroll.GenerateWorkers <= 0 {
		problems = append(problems, "PAYROLL_GENERATE_WORKERS must be positive")
	}
	if c.Payroll.ChallanDueDay < 1 || c.Payroll.ChallanDueDay > 31 {
		problems = append(problems, "PAYROLL_CHALLAN_DUE_DAY must be between 1 and 31")
	}
	if c.Payroll.OverdueSweepInterval <= 0 {
		problems = append(problems, "PAYROLL_OVERDUE_SWEEP_INTERVAL must be positive")
	}
	if strings.TrimSpace(c.Payroll.DefaultJurisdiction) == "" {
		problems = append(problems, "PAYROLL_DEFAULT_JURISDICTION is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
