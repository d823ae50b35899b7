package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Dispatch DispatchConfig
	Gateway  GatewayConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled      bool
	Address      string
	Password     string
	DB           int
	DirectoryTTL time.Duration
}

type DispatchConfig struct {
	Interval  time.Duration
	SendPause time.Duration
}

type GatewayConfig struct {
	URL         string
	SendTimeout time.Duration
}

func LoadAll() (*Config, error) {
	var r envReader

	cfg := &Config{
		Server: ServerConfig{
			Address: r.str("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: r.required("POSTGRES_URL"),
		},
		Gateway: GatewayConfig{
			URL:         r.required("GATEWAY_URL"),
			SendTimeout: time.Duration(r.intval("SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Dispatch: DispatchConfig{
			Interval:  time.Duration(r.intval("DISPATCH_INTERVAL_SECONDS", 5)) * time.Second,
			SendPause: time.Duration(r.intval("SEND_PAUSE_MS", 500)) * time.Millisecond,
		},
		Redis: loadRedisConfig(&r),
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig(r *envReader) RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:      true,
		Address:      addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           r.intval("REDIS_DB", 0),
		DirectoryTTL: time.Duration(r.intval("DIRECTORY_TTL_SECONDS", 30)) * time.Second,
	}
}

func validate(cfg *Config) error {
	if cfg.Dispatch.Interval <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Dispatch.SendPause < 0 {
		return fmt.Errorf("SEND_PAUSE_MS must be >= 0")
	}
	if cfg.Gateway.SendTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.Redis.Enabled && cfg.Redis.DirectoryTTL <= 0 {
		return fmt.Errorf("DIRECTORY_TTL_SECONDS must be > 0")
	}
	return nil
}

// envReader collects the first read failure so LoadAll can report it
// once instead of panicking per key.
type envReader struct {
	err error
}

func (r *envReader) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (r *envReader) required(key string) string {
	v := os.Getenv(key)
	if v == "" && r.err == nil {
		r.err = fmt.Errorf("missing required env var: %s", key)
	}
	return v
}

func (r *envReader) intval(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("invalid int for env %s: %q", key, v)
		}
		return def
	}
	return i
}
