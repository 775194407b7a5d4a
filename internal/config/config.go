package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	QueueLocal = "local"
	QueueRedis = "redis"
)

// Config holds the environment driven configuration for the chat backend.
type Config struct {
	AppEnv         string `env:"APP_ENV" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPListenAddr string `env:"HTTP_LISTEN_ADDR" envDefault:":8080"`
	PublicBasePath string `env:"PUBLIC_BASE_PATH" envDefault:"/api"`

	// Datastore
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SupabaseSchema string        `env:"SUPABASE_SCHEMA" envDefault:"public"`
	SQLitePath     string        `env:"SQLITE_PATH"`
	DBQueryTimeout time.Duration `env:"DB_QUERY_TIMEOUT" envDefault:"10s"`

	// Language model
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	ChatMaxTokens    int           `env:"CHAT_MAX_TOKENS" envDefault:"800"`
	AnalyzeMaxTokens int           `env:"ANALYZE_MAX_TOKENS" envDefault:"1000"`

	// Relay webhook
	WebhookURL     string        `env:"WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"15s"`

	// Background jobs
	JobQueue         string        `env:"JOB_QUEUE" envDefault:"local"`
	JobWorkers       int           `env:"JOB_WORKERS" envDefault:"2"`
	JobTimeout       time.Duration `env:"JOB_TIMEOUT" envDefault:"90s"`
	JobBuffer        int           `env:"JOB_BUFFER" envDefault:"64"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	RedisTLS         bool          `env:"REDIS_TLS" envDefault:"false"`
	RedisQueue       string        `env:"REDIS_QUEUE_KEY" envDefault:"bakery-chat:jobs"`
	MetricsNamespace string        `env:"METRICS_NAMESPACE" envDefault:"bakery_chat"`
	Timezone         string        `env:"TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and parses the environment into Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	cfg.JobQueue = strings.ToLower(strings.TrimSpace(cfg.JobQueue))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.SQLitePath = strings.TrimSpace(cfg.SQLitePath)
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.PublicBasePath = normalizeBasePath(cfg.PublicBasePath)

	switch cfg.DatabaseDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER is %s", DriverPostgres)
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required when DATABASE_DRIVER is %s", DriverSQLite)
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	switch cfg.JobQueue {
	case QueueLocal, QueueRedis:
	default:
		return nil, fmt.Errorf("unsupported JOB_QUEUE %q", cfg.JobQueue)
	}

	if cfg.ChatMaxTokens <= 0 {
		cfg.ChatMaxTokens = 800
	}
	if cfg.AnalyzeMaxTokens <= 0 {
		cfg.AnalyzeMaxTokens = 1000
	}
	if cfg.JobWorkers <= 0 {
		cfg.JobWorkers = 1
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves TIMEZONE, used for "today" in statistics.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// HasOpenAIKey reports whether a model API key is configured.
func (c *Config) HasOpenAIKey() bool {
	return c.OpenAIAPIKey != ""
}

// HasDatastore reports whether the selected driver has a connection target.
func (c *Config) HasDatastore() bool {
	if c.DatabaseDriver == DriverSQLite {
		return c.SQLitePath != ""
	}
	return c.DatabaseURL != ""
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
