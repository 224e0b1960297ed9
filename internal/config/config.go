package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Values come from the
// embedded defaults, then an optional config file, then environment
// overrides, in that order.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Model   ModelConfig   `yaml:"model"`
	Store   StoreConfig   `yaml:"store"`
	Stream  StreamConfig  `yaml:"stream"`
	Limits  LimitsConfig  `yaml:"limits"`
	Logging LoggingConfig `yaml:"logging"`
	Prompt  string        `yaml:"prompt"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	SQLitePath    string `yaml:"sqlite_path"`
	MaxRounds     int    `yaml:"max_rounds"`
	PromptWindow  int    `yaml:"prompt_window"`
	TTLDays       int    `yaml:"ttl_days"`
	SweepInterval string `yaml:"sweep_interval"`
}

type StreamConfig struct {
	KeepAliveSeconds int `yaml:"keepalive_seconds"`
	PollIntervalMS   int `yaml:"poll_interval_ms"`
}

type LimitsConfig struct {
	TriggerPerMinute int `yaml:"trigger_per_minute"`
	TriggerBurst     int `yaml:"trigger_burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration. The embedded YAML in the
// main package layers the default prompt on top of this.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      3002,
			StaticDir: "static",
		},
		Model: ModelConfig{
			Provider:    "anthropic",
			Model:       "claude-3-5-sonnet-20240620",
			MaxTokens:   1000,
			Temperature: 0.7,
		},
		Store: StoreConfig{
			Backend:       "redis",
			RedisAddr:     "localhost:6379",
			SQLitePath:    "data/twotruths.db",
			MaxRounds:     100,
			PromptWindow:  15,
			TTLDays:       30,
			SweepInterval: "@every 1h",
		},
		Stream: StreamConfig{
			KeepAliveSeconds: 20,
			PollIntervalMS:   500,
		},
		Limits: LimitsConfig{
			TriggerPerMinute: 60,
			TriggerBurst:     10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromBytes parses YAML over the defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.expand()
	c.applyEnv()
	return c, nil
}

// Load reads a config file over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if err := c.MergeFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// MergeFile layers a config file onto c. Keys absent from the file keep
// their current values, so a partial file only overrides what it names.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.expand()
	c.applyEnv()
	return nil
}

// expand resolves ${VAR} references in fields that commonly carry
// secrets or machine-specific paths. The prompt is left alone.
func (c *Config) expand() {
	c.Model.APIKey = os.ExpandEnv(c.Model.APIKey)
	c.Model.BaseURL = os.ExpandEnv(c.Model.BaseURL)
	c.Store.RedisAddr = os.ExpandEnv(c.Store.RedisAddr)
	c.Store.RedisPassword = os.ExpandEnv(c.Store.RedisPassword)
	c.Store.SQLitePath = os.ExpandEnv(c.Store.SQLitePath)
	c.Server.StaticDir = os.ExpandEnv(c.Server.StaticDir)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

// KeepAlive is how long a stream connection may sit idle before a
// comment frame is written.
func (s StreamConfig) KeepAlive() time.Duration {
	if s.KeepAliveSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(s.KeepAliveSeconds) * time.Second
}

// PollInterval is the generation worker's wake-up period.
func (s StreamConfig) PollInterval() time.Duration {
	if s.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

// TTL is how long an idle session's records are retained.
func (s StoreConfig) TTL() time.Duration {
	if s.TTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(s.TTLDays) * 24 * time.Hour
}
