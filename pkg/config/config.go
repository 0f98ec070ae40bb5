package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Run history database, postgres:// or sqlite://<path>; empty disables it
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Redis (result cache); empty disables it
	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	// Solver
	Solver  string `mapstructure:"SOLVER"`
	CBCPath string `mapstructure:"CBC_PATH"`

	// Optimization
	MaxLineups          int           `mapstructure:"MAX_LINEUPS"`
	OptimizationTimeout time.Duration `mapstructure:"OPTIMIZATION_TIMEOUT"`
	SlotWorkers         int           `mapstructure:"SLOT_WORKERS"`
}

const (
	SolverNative = "native"
	SolverCBC    = "cbc"
)

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("PORT", "8082")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("SOLVER", SolverNative)
	v.SetDefault("CBC_PATH", "cbc")
	v.SetDefault("MAX_LINEUPS", 150)
	v.SetDefault("OPTIMIZATION_TIMEOUT", "5m")
	v.SetDefault("SLOT_WORKERS", 4)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.Solver = strings.ToLower(config.Solver)
	if config.Solver != SolverNative && config.Solver != SolverCBC {
		return nil, fmt.Errorf("unknown SOLVER %q (want %q or %q)", config.Solver, SolverNative, SolverCBC)
	}
	if config.SlotWorkers < 1 {
		config.SlotWorkers = 1
	}

	return &config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
