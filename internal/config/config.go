package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/llm"
	"github.com/timeismoneyinc2019-crypto/UnityLedger/internal/scheduler"
)

const defaultConfigFile = "unitypay.yaml"

// Config holds all configuration for the application.
type Config struct {
	Port        string `yaml:"port"`
	Env         string `yaml:"env"`
	DatabaseURL string `yaml:"-"`
	SQLitePath  string `yaml:"sqlite_path"`
	RedisURL    string `yaml:"-"`
	StaticDir   string `yaml:"static_dir"`

	// Rate limiting
	RateLimitWhitelist []string `yaml:"rate_limit_whitelist"` // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     `yaml:"auto_block_enabled"`   // Enable auto-blocking after repeated violations

	AI       llm.Config        `yaml:"ai"`
	Ledger   LedgerConfig      `yaml:"ledger"`
	Meetings []scheduler.Entry `yaml:"schedules"`
}

// LedgerConfig configures the token ledger.
type LedgerConfig struct {
	Owner string `yaml:"owner"`
	// InitialSupply is in whole tokens and minted to the owner once.
	InitialSupply uint64 `yaml:"initial_supply"`
}

// Load reads configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := defaults()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			panic(err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		panic(err)
	}

	// In production, require the AI key and a durable store
	if cfg.Env == "production" {
		if cfg.AI.APIKey == "" {
			panic("AI_INTEGRATIONS_OPENAI_API_KEY is required in production")
		}
		if cfg.DatabaseURL == "" && cfg.SQLitePath == "" {
			panic("DATABASE_URL or SQLITE_PATH is required in production")
		}
	}

	return cfg
}

func defaults() *Config {
	return &Config{
		Port: "8080",
		Env:  "development",
		AI: llm.Config{
			BaseURL: llm.DefaultBaseURL,
			Model:   llm.DefaultModel,
			Timeout: 60 * time.Second,
		},
		Ledger: LedgerConfig{InitialSupply: 100_000_000},
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return scheduler.Validate(c.Meetings)
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Env = getEnv("ENV", c.Env)
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	if v := os.Getenv("AUTO_BLOCK_ENABLED"); v != "" {
		c.AutoBlockEnabled = v == "true"
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		c.RateLimitWhitelist = nil
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				c.RateLimitWhitelist = append(c.RateLimitWhitelist, entry)
			}
		}
	}

	c.AI.BaseURL = getEnv("AI_INTEGRATIONS_OPENAI_BASE_URL", c.AI.BaseURL)
	c.AI.APIKey = getEnv("AI_INTEGRATIONS_OPENAI_API_KEY", c.AI.APIKey)
	c.AI.Model = getEnv("AI_MODEL", c.AI.Model)
	if v := os.Getenv("AI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AI_TIMEOUT: %w", err)
		}
		c.AI.Timeout = d
	}

	c.Ledger.Owner = getEnv("LEDGER_OWNER", c.Ledger.Owner)
	if v := os.Getenv("LEDGER_INITIAL_SUPPLY"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LEDGER_INITIAL_SUPPLY: %w", err)
		}
		c.Ledger.InitialSupply = n
	}

	if v := os.Getenv("MEETING_SCHEDULES"); v != "" {
		entries, err := scheduler.ParseSchedules(v)
		if err != nil {
			return fmt.Errorf("MEETING_SCHEDULES: %w", err)
		}
		c.Meetings = entries
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
