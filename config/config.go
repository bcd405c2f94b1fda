package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	// Хранилище
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// HTTP
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8080"`
	FrontendURL  string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	JWTSecretKey string `envconfig:"JWT_SECRET_KEY"`

	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// Часовой пояс для группировки трендов по календарным дням
	Timezone string `envconfig:"TIMEZONE" default:"UTC"`

	// Планировщик
	EnableScheduler    bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	UpcomingCron       string        `envconfig:"UPCOMING_CRON" default:"* * * * *"`
	MissingCron        string        `envconfig:"MISSING_CRON" default:"*/30 * * * *"`
	CleanupCron        string        `envconfig:"CLEANUP_CRON" default:"0 * * * *"`
	CompletedCheckCron string        `envconfig:"COMPLETED_CHECK_CRON" default:"*/15 * * * *"`
	DailyReportCron    string        `envconfig:"DAILY_REPORT_CRON" default:"0 6 * * *"`
	UpcomingWindow     time.Duration `envconfig:"UPCOMING_WINDOW" default:"1h"`
	MissingGrace       time.Duration `envconfig:"MISSING_GRACE" default:"2h"`
	PlaceholderMaxAge  time.Duration `envconfig:"PLACEHOLDER_MAX_AGE" default:"24h"`

	// Cloudflare R2 для архива экспортов, пустые значения отключают архив
	R2AccountID       string `envconfig:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `envconfig:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `envconfig:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `envconfig:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `envconfig:"R2_PUBLIC_BASE_URL"`
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.UpcomingWindow <= 0 || c.MissingGrace <= 0 || c.PlaceholderMaxAge <= 0 {
		return fmt.Errorf("UPCOMING_WINDOW, MISSING_GRACE and PLACEHOLDER_MAX_AGE must be positive")
	}
	if c.IsProduction() && c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required in production")
	}
	return nil
}

// Location возвращает часовой пояс из TIMEZONE. Значение уже проверено в Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ArchiveEnabled - заданы ли все параметры R2.
func (c *Config) ArchiveEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad загружает конфигурацию или завершает процесс.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
