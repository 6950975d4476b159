package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv   string `env:"APP_ENV,default=dev"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	StoreDriver string `env:"STORE_DRIVER,default=memory"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	// Redis để trống thì dùng cache/idempotency rỗng
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisUser     string `env:"REDIS_USER"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	RabbitMQURL string `env:"RABBITMQ_URL"`

	RateCacheTTL         time.Duration `env:"RATE_CACHE_TTL,default=15m"`
	AvailabilityCacheTTL time.Duration `env:"AVAILABILITY_CACHE_TTL,default=15m"`
	BookingTimeout       time.Duration `env:"BOOKING_TIMEOUT,default=5s"`
	IdempotencyKeyTTL    time.Duration `env:"IDEMPOTENCY_KEY_TTL,default=24h"`

	BusinessHoursStart int `env:"BUSINESS_HOURS_START,default=8"`
	BusinessHoursEnd   int `env:"BUSINESS_HOURS_END,default=20"`

	NoShowCron     string        `env:"NO_SHOW_CRON,default=0 1 * * *"`
	HoldExpiryCron string        `env:"HOLD_EXPIRY_CRON,default=*/5 * * * *"`
	HoldTTL        time.Duration `env:"HOLD_TTL,default=30m"`

	EventBuffer int `env:"EVENT_BUFFER,default=256"`
}

// LoadEnv nạp biến môi trường từ tệp `.env` nếu có
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}

func Load(ctx context.Context) (*Config, error) {
	LoadEnv()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.BusinessHoursStart < 0 || c.BusinessHoursEnd > 24 || c.BusinessHoursStart >= c.BusinessHoursEnd {
		return fmt.Errorf("business hours must satisfy 0 <= start < end <= 24, got %d-%d", c.BusinessHoursStart, c.BusinessHoursEnd)
	}
	if c.BookingTimeout <= 0 {
		return fmt.Errorf("BOOKING_TIMEOUT must be positive, got %s", c.BookingTimeout)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("EVENT_BUFFER must be positive, got %d", c.EventBuffer)
	}
	return nil
}
