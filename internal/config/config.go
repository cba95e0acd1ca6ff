package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	CashbookURL           string `env:"CASHBOOK_URL"`
	CashbookTimeoutS      int    `env:"CASHBOOK_TIMEOUT_S" envDefault:"5"`
	PostingRetryIntervalS int    `env:"POSTING_RETRY_INTERVAL_S" envDefault:"30"`
	PostingMaxAttempts    int    `env:"POSTING_MAX_ATTEMPTS" envDefault:"5"`
	BatchKeyMaxRetries    int    `env:"BATCH_KEY_MAX_RETRIES" envDefault:"3"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBPingAttempts     int `env:"DB_PING_ATTEMPTS" envDefault:"30"`

	JWTExpiryH int `env:"JWT_EXPIRY_H" envDefault:"12"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) CashbookTimeout() time.Duration {
	return time.Duration(c.CashbookTimeoutS) * time.Second
}

func (c *Config) PostingRetryInterval() time.Duration {
	return time.Duration(c.PostingRetryIntervalS) * time.Second
}

func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeS) * time.Second
}

func (c *Config) DBConnMaxIdleTime() time.Duration {
	return time.Duration(c.DBConnMaxIdleTimeS) * time.Second
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryH) * time.Hour
}
