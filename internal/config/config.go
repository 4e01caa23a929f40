package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port       int           `yaml:"port"`
	BasePath   string        `yaml:"base_path"` // prefix used when building action targets
	PollLimit  int           `yaml:"poll_limit"`
	PollWindow time.Duration `yaml:"poll_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type FarcasterConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type VisionConfig struct {
	OpenAIKey    string        `yaml:"openai_key"`
	GeminiKey    string        `yaml:"gemini_key"`
	GeminiURL    string        `yaml:"gemini_url"`
	DefaultModel string        `yaml:"default_model"`
	Prompt       string        `yaml:"prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

type ChainConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	ChainID        int64         `yaml:"chain_id"`
	PaymentAddress string        `yaml:"payment_address"`
	PaymentValue   string        `yaml:"payment_value"` // wei, decimal string
	SchemaID       string        `yaml:"schema_id"`
	Timeout        time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	Workers        int           `yaml:"workers"`
	QueueSize      int           `yaml:"queue_size"`
	ReconcileEvery time.Duration `yaml:"reconcile_every"`
	StaleAfter     time.Duration `yaml:"stale_after"`
	// AbandonAfter is how long a pending payment may reference a transaction
	// the chain has never seen before it is marked failed.
	AbandonAfter time.Duration `yaml:"abandon_after"`
}

type PolicyConfig struct {
	// EmbedFilter selects how reply embeds are screened: "regex" keeps URLs
	// matching ImageRegex, "any" takes the first non-empty URL.
	EmbedFilter string `yaml:"embed_filter"`
	ImageRegex  string `yaml:"image_regex"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Farcaster FarcasterConfig `yaml:"farcaster"`
	Vision    VisionConfig    `yaml:"vision"`
	Chain     ChainConfig     `yaml:"chain"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Policy    PolicyConfig    `yaml:"policy"`

	Runtime RuntimeConfig `yaml:"-"`
}

const defaultImageRegex = `(?i)\.(png|jpe?g|gif|webp)(\?.*)?$`

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.PollLimit <= 0 {
		cfg.Server.PollLimit = 30
	}
	if cfg.Server.PollWindow <= 0 {
		cfg.Server.PollWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Farcaster.BaseURL == "" {
		cfg.Farcaster.BaseURL = "https://api.neynar.com/v2/farcaster"
	}
	if cfg.Farcaster.Timeout <= 0 {
		cfg.Farcaster.Timeout = 10 * time.Second
	}
	if cfg.Vision.DefaultModel == "" {
		cfg.Vision.DefaultModel = "gpt-4o-mini"
	}
	if cfg.Vision.Timeout <= 0 {
		cfg.Vision.Timeout = 30 * time.Second
	}
	if cfg.Chain.Timeout <= 0 {
		cfg.Chain.Timeout = 20 * time.Second
	}
	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 8
	}
	if cfg.Pipeline.QueueSize <= 0 {
		cfg.Pipeline.QueueSize = cfg.Pipeline.Workers * 4
	}
	if cfg.Pipeline.ReconcileEvery <= 0 {
		cfg.Pipeline.ReconcileEvery = time.Minute
	}
	if cfg.Pipeline.StaleAfter <= 0 {
		cfg.Pipeline.StaleAfter = 2 * time.Minute
	}
	if cfg.Pipeline.AbandonAfter <= 0 {
		cfg.Pipeline.AbandonAfter = 30 * time.Minute
	}
	if cfg.Redis.LockTTL <= 0 {
		cfg.Redis.LockTTL = 5 * time.Minute
	}
	if cfg.Policy.EmbedFilter == "" {
		cfg.Policy.EmbedFilter = "regex"
	}
	if cfg.Policy.ImageRegex == "" {
		cfg.Policy.ImageRegex = defaultImageRegex
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Farcaster.APIKey == "" {
		return nil, errors.New("farcaster.api_key is required")
	}
	if cfg.Chain.BaseURL == "" {
		return nil, errors.New("chain.base_url is required")
	}
	if cfg.Policy.EmbedFilter != "regex" && cfg.Policy.EmbedFilter != "any" {
		return nil, fmt.Errorf("policy.embed_filter must be \"regex\" or \"any\", got %q", cfg.Policy.EmbedFilter)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
