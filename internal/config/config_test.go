package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default returned nil")
	}

	if cfg.Server.Port != 3002 {
		t.Errorf("expected port 3002, got %d", cfg.Server.Port)
	}

	if cfg.Model.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic', got %s", cfg.Model.Provider)
	}

	if cfg.Store.MaxRounds != 100 {
		t.Errorf("expected max_rounds 100, got %d", cfg.Store.MaxRounds)
	}

	if cfg.Store.PromptWindow != 15 {
		t.Errorf("expected prompt_window 15, got %d", cfg.Store.PromptWindow)
	}

	if cfg.Store.TTLDays != 30 {
		t.Errorf("expected ttl_days 30, got %d", cfg.Store.TTLDays)
	}

	if cfg.Limits.TriggerPerMinute != 60 {
		t.Errorf("expected trigger_per_minute 60, got %d", cfg.Limits.TriggerPerMinute)
	}
}

func TestLoadFromBytesOverridesDefaults(t *testing.T) {
	data := []byte(`
server:
  port: 8080
model:
  provider: openai
  model: gpt-4o
prompt: |
  You are the game master.
`)
	cfg, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Model.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %s", cfg.Model.Provider)
	}
	if cfg.Prompt != "You are the game master.\n" {
		t.Errorf("unexpected prompt: %q", cfg.Prompt)
	}

	// Keys absent from the YAML keep their defaults.
	if cfg.Store.Backend != "redis" {
		t.Errorf("expected default backend 'redis', got %s", cfg.Store.Backend)
	}
	if cfg.Stream.PollIntervalMS != 500 {
		t.Errorf("expected default poll interval 500, got %d", cfg.Stream.PollIntervalMS)
	}
}

func TestLoadFromBytesInvalidYAML(t *testing.T) {
	if _, err := LoadFromBytes([]byte("server: [not a map")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestMergeFilePartialOverride(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "twotruths.yaml")
	content := `
store:
  backend: sqlite
  sqlite_path: /tmp/test.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	cfg.Prompt = "keep me"
	if err := cfg.MergeFile(path); err != nil {
		t.Fatalf("MergeFile failed: %v", err)
	}

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected backend 'sqlite', got %s", cfg.Store.Backend)
	}
	if cfg.Store.SQLitePath != "/tmp/test.db" {
		t.Errorf("expected sqlite path '/tmp/test.db', got %s", cfg.Store.SQLitePath)
	}
	// Untouched keys survive the merge.
	if cfg.Prompt != "keep me" {
		t.Errorf("prompt was clobbered: %q", cfg.Prompt)
	}
	if cfg.Server.Port != 3002 {
		t.Errorf("expected port 3002, got %d", cfg.Server.Port)
	}
}

func TestMergeFileMissing(t *testing.T) {
	cfg := Default()
	if err := cfg.MergeFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "expanded-key")
	t.Setenv("TEST_REDIS", "redis.internal:6379")

	data := []byte(`
model:
  api_key: ${TEST_API_KEY}
store:
  redis_addr: ${TEST_REDIS}
`)
	cfg, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Model.APIKey != "expanded-key" {
		t.Errorf("expected expanded api key, got %s", cfg.Model.APIKey)
	}
	if cfg.Store.RedisAddr != "redis.internal:6379" {
		t.Errorf("expected expanded redis addr, got %s", cfg.Store.RedisAddr)
	}
}

func TestPortEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := LoadFromBytes([]byte("server:\n  port: 3002\n"))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected PORT override 9000, got %d", cfg.Server.Port)
	}
}

func TestDurationHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"keepalive", StreamConfig{KeepAliveSeconds: 30}.KeepAlive(), 30 * time.Second},
		{"keepalive default", StreamConfig{}.KeepAlive(), 20 * time.Second},
		{"poll interval", StreamConfig{PollIntervalMS: 250}.PollInterval(), 250 * time.Millisecond},
		{"poll interval default", StreamConfig{}.PollInterval(), 500 * time.Millisecond},
		{"ttl", StoreConfig{TTLDays: 7}.TTL(), 7 * 24 * time.Hour},
		{"ttl default", StoreConfig{}.TTL(), 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}
