package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

const (
	minBatchSize = 1
	maxBatchSize = 50
)

type Config struct {
	DatabaseDSN      string `env:"DATABASE_DSN,required=true"`
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required=true"`
	RedisURL         string `env:"REDIS_URL"`
	RabbitMQURL      string `env:"RABBITMQ_URL"`
	TriggerSecret    string `env:"DISPATCH_TRIGGER_SECRET"`
	APIPort          int    `env:"API_PORT,default=8080"`
	LogLevel         string `env:"LOG_LEVEL,default=info"`

	BatchSize           int           `env:"BATCH_SIZE,default=20"`
	MaxAttempts         int           `env:"MAX_ATTEMPTS,default=3"`
	RetryDelay          time.Duration `env:"RETRY_DELAY,default=5m"`
	SendInterval        time.Duration `env:"SEND_INTERVAL,default=35ms"`
	Retention           time.Duration `env:"RETENTION,default=168h"`
	TickInterval        time.Duration `env:"TICK_INTERVAL,default=60s"`
	QuietUTCOffsetHours int           `env:"QUIET_UTC_OFFSET_HOURS,default=3"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// The external platform tolerates bursts, but one invocation must stay
	// inside single-digit seconds of wall clock; clamp the batch accordingly.
	if cfg.BatchSize < minBatchSize {
		cfg.BatchSize = minBatchSize
	}
	if cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &cfg, nil
}
