// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the service settings. Engine tuning lives in its own JSON file.
type Config struct {
	Addr        string `envconfig:"ADDR" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	TuningPath  string `envconfig:"TUNING_PATH" default:"configs/anomaly.json"`

	// Remote issuer; empty means the in-process issuer answers reward requests
	RewardURL     string        `envconfig:"REWARD_URL"`
	RewardTimeout time.Duration `envconfig:"REWARD_TIMEOUT" default:"5s"`

	IssuerSecret   string        `envconfig:"ISSUER_SECRET"`
	IssuerFlag     string        `envconfig:"ISSUER_FLAG" default:"LIFTOFF{n4v7_w4s_n3v3r_4l0n3}"`
	IssuerMinScore int           `envconfig:"ISSUER_MIN_SCORE" default:"3"`
	ReceiptTTL     time.Duration `envconfig:"RECEIPT_TTL" default:"24h"`

	// Empty means the ledger is kept in memory
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	SessionIdle time.Duration `envconfig:"SESSION_IDLE" default:"30m"`
	Metrics     bool          `envconfig:"METRICS" default:"true"`
}

// Load reads envFile if it exists, then the process environment. Variables are
// prefixed with LIFTOFF_.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("liftoff", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	return &cfg, nil
}
