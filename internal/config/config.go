// Package config loads service configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"os"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Port        string  `yaml:"port"`
	DatabaseURL string  `yaml:"databaseUrl"`
	RedisURL    string  `yaml:"redisUrl"`
	AuthMode    string  `yaml:"authMode"`
	LogLevel    string  `yaml:"logLevel"`
	RateRPS     float64 `yaml:"rateRps"`
	RateBurst   int     `yaml:"rateBurst"`
}

// Load reads CONFIG_FILE (when set) and applies env overrides on top.
// Missing values get defaults; a missing file is only an error when it
// was explicitly requested.
func Load() (Config, error) {
	cfg := Config{Port: "8080", AuthMode: "dev", LogLevel: "info"}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("AUTH_MODE"); v != "" {
		cfg.AuthMode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateRPS = f
		}
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateBurst = n
		}
	}
	return cfg, nil
}
