// Package config loads process configuration and clamps simulation inputs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"mining-sim-lab/internal/domain"
)

// Environment variable names.
const (
	EnvAddr         = "MINING_SIM_ADDR"
	EnvTickInterval = "MINING_SIM_TICK_INTERVAL"
	EnvSeed         = "MINING_SIM_SEED"
	EnvCoin         = "MINING_SIM_COIN"
	EnvHistory      = "MINING_SIM_HISTORY"
	EnvUseMemory    = "MINING_SIM_USE_MEMORY"
	EnvOutputDir    = "MINING_SIM_OUTPUT_DIR"
	EnvPostgresDSN  = "POSTGRES_DSN"
	EnvClickhouse   = "CLICKHOUSE_DSN"
)

// Config is the process-level configuration shared by the binaries.
type Config struct {
	Addr          string
	TickInterval  time.Duration
	Seed          int64 // 0 means seed from the wall clock
	Coin          string
	HistorySize   int
	UseMemory     bool
	OutputDir     string
	PostgresDSN   string
	ClickhouseDSN string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:         ":8080",
		TickInterval: time.Second,
		Coin:         domain.DefaultCoin,
		HistorySize:  50,
		OutputDir:    "output",
	}
}

// Load reads optional .env files (default ".env") and then the environment.
// Variables already present in the environment are not overridden by .env.
// Missing files are skipped; a file that exists but does not parse is an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvTickInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvTickInterval, err)
		}
		cfg.TickInterval = d
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}
	if v := os.Getenv(EnvCoin); v != "" {
		cfg.Coin = v
	}
	if v := os.Getenv(EnvHistory); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvHistory, err)
		}
		cfg.HistorySize = n
	}
	if v := os.Getenv(EnvUseMemory); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvUseMemory, err)
		}
		cfg.UseMemory = b
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.OutputDir = v
	}
	cfg.PostgresDSN = os.Getenv(EnvPostgresDSN)
	cfg.ClickhouseDSN = os.Getenv(EnvClickhouse)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that cannot be clamped.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history size must be positive, got %d", c.HistorySize)
	}
	if _, err := domain.LookupCoin(c.Coin); err != nil {
		return fmt.Errorf("coin %q: %w", c.Coin, err)
	}
	return nil
}
