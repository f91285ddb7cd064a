// Package config reads server settings from the environment, then lets flags override them.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration.
type Config struct {
	HTTPAddr      string        `env:"SPIRAL_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string        `env:"SPIRAL_GRPC_ADDR" envDefault:":9090"`
	DBPath        string        `env:"SPIRAL_DB_PATH" envDefault:"spiral.db"`
	TablesPath    string        `env:"SPIRAL_TABLES_PATH"`
	WatchInterval time.Duration `env:"SPIRAL_WATCH_INTERVAL" envDefault:"2s"`
	Seed          uint          `env:"SPIRAL_SEED"` // 0 means a time-derived seed per run
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and then args through fs.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP listen address (default: SPIRAL_HTTP_ADDR or :8080)")
	fs.StringVar(&cfg.GRPCAddr, "grpc", cfg.GRPCAddr, "gRPC listen address, empty disables (default: SPIRAL_GRPC_ADDR or :9090)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite progression database, :memory: keeps nothing")
	fs.StringVar(&cfg.TablesPath, "tables", cfg.TablesPath, "YAML file merged over the built-in tables")
	fs.DurationVar(&cfg.WatchInterval, "watch", cfg.WatchInterval, "tables file poll interval, 0 disables")
	fs.UintVar(&cfg.Seed, "seed", cfg.Seed, "fixed run seed (0 = time-derived)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Seed > 1<<32-1 {
		return Config{}, fmt.Errorf("seed %d does not fit in 32 bits", cfg.Seed)
	}
	return cfg, nil
}
