package config

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// Env vars are process-global; serialize tests that touch them.
var envMu sync.Mutex

func clearTestEnv(t *testing.T) {
	t.Helper()

	keys := []string{
		"SERVER_ADDRESS",
		"POSTGRES_URL",
		"GATEWAY_URL",
		"SEND_TIMEOUT_SECONDS",
		"DISPATCH_INTERVAL_SECONDS",
		"SEND_PAUSE_MS",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"DIRECTORY_TTL_SECONDS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadAll_HappyPath_NoRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("GATEWAY_URL", "http://localhost:3000")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Database.PostgresURL != "postgres://u:p@localhost:5432/db?sslmode=disable" {
		t.Fatalf("unexpected PostgresURL: %q", cfg.Database.PostgresURL)
	}
	if cfg.Gateway.URL != "http://localhost:3000" {
		t.Fatalf("unexpected Gateway.URL: %q", cfg.Gateway.URL)
	}
	if cfg.Server.Address != ":8080" {
		t.Fatalf("unexpected Server.Address default: %q", cfg.Server.Address)
	}
	if cfg.Dispatch.Interval != 5*time.Second {
		t.Fatalf("unexpected Dispatch.Interval default: %v", cfg.Dispatch.Interval)
	}
	if cfg.Dispatch.SendPause != 500*time.Millisecond {
		t.Fatalf("unexpected Dispatch.SendPause default: %v", cfg.Dispatch.SendPause)
	}
	if cfg.Gateway.SendTimeout != 10*time.Second {
		t.Fatalf("unexpected Gateway.SendTimeout default: %v", cfg.Gateway.SendTimeout)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}
}

func TestLoadAll_HappyPath_WithRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("GATEWAY_URL", "http://localhost:3000")

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DIRECTORY_TTL_SECONDS", "42")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected Redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Fatalf("unexpected Redis.Address: %q", cfg.Redis.Address)
	}
	if cfg.Redis.Password != "secret" {
		t.Fatalf("unexpected Redis.Password: %q", cfg.Redis.Password)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected Redis.DB: %d", cfg.Redis.DB)
	}
	if cfg.Redis.DirectoryTTL != 42*time.Second {
		t.Fatalf("unexpected Redis.DirectoryTTL: %v", cfg.Redis.DirectoryTTL)
	}
}

func TestLoadAll_RequiredEnvMissing(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	t.Run("missing POSTGRES_URL", func(t *testing.T) {
		clearTestEnv(t)

		t.Setenv("GATEWAY_URL", "http://localhost:3000")

		_, err := LoadAll()
		if err == nil {
			t.Fatalf("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "POSTGRES_URL") {
			t.Fatalf("expected error mentioning POSTGRES_URL, got: %v", err)
		}
	})

	t.Run("missing GATEWAY_URL", func(t *testing.T) {
		clearTestEnv(t)

		t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")

		_, err := LoadAll()
		if err == nil {
			t.Fatalf("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "GATEWAY_URL") {
			t.Fatalf("expected error mentioning GATEWAY_URL, got: %v", err)
		}
	})
}

func TestLoadAll_InvalidInts(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid DISPATCH_INTERVAL_SECONDS", "DISPATCH_INTERVAL_SECONDS", "nope"},
		{"invalid SEND_PAUSE_MS", "SEND_PAUSE_MS", "x"},
		{"invalid SEND_TIMEOUT_SECONDS", "SEND_TIMEOUT_SECONDS", "abc"},
		{"invalid REDIS_DB", "REDIS_DB", "bad"},
		{"invalid DIRECTORY_TTL_SECONDS", "DIRECTORY_TTL_SECONDS", "bad"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
			t.Setenv("GATEWAY_URL", "http://localhost:3000")
			t.Setenv("REDIS_ADDR", "localhost:6379")
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_OutOfRangeValues(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"zero interval", "DISPATCH_INTERVAL_SECONDS", "0"},
		{"negative pause", "SEND_PAUSE_MS", "-1"},
		{"zero send timeout", "SEND_TIMEOUT_SECONDS", "0"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)

			t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
			t.Setenv("GATEWAY_URL", "http://localhost:3000")
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}
