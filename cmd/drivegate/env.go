package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"drivegate"
)

type envConfig struct {
	Listen        string        `env:"DRIVEGATE_LISTEN" envDefault:":8080"`
	ACLPath       string        `env:"DRIVEGATE_ACL" envDefault:"acl.yml"`
	ClientID      string        `env:"AZURE_CLIENT_ID"`
	TenantID      string        `env:"AZURE_TENANT_ID" envDefault:"common"`
	Scopes        []string      `env:"DRIVEGATE_SCOPES" envSeparator:","`
	TokenCache    string        `env:"DRIVEGATE_TOKEN_CACHE" envDefault:".token_cache.json"`
	SessionSecret string        `env:"DRIVEGATE_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"DRIVEGATE_SESSION_TTL" envDefault:"15m"`
	RedisAddr     string        `env:"DRIVEGATE_REDIS_ADDR"`
	LogLevel      string        `env:"DRIVEGATE_LOG_LEVEL" envDefault:"info"`
}

// loadEnv reads .env when present, then the process environment.
func loadEnv() (envConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return envConfig{}, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := env.ParseAs[envConfig]()
	if err != nil {
		return envConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c envConfig) engineConfig() drivegate.Config {
	cfg := drivegate.DefaultConfig()
	cfg.ACL.Path = c.ACLPath
	cfg.Auth.ClientID = c.ClientID
	cfg.Auth.TenantID = c.TenantID
	if len(c.Scopes) > 0 {
		cfg.Auth.Scopes = c.Scopes
	}
	cfg.Auth.CacheFile = c.TokenCache
	return cfg
}

func (c envConfig) logger() *slog.Logger {
	level := slog.LevelInfo
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
