package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultModel           = "gpt-5-mini"
	defaultTemperature     = 0.1
	defaultMaxTokens       = 1000
	defaultModelTimeout    = 30 * time.Second
	defaultHTTPAddr        = "127.0.0.1:8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultMaxSteps        = 8
	defaultHistoryWindow   = 40
	defaultSQLiteTable     = "formchat_checkpoint"
)

type StoreDriver string

const (
	StoreMemory StoreDriver = "memory"
	StoreSQLite StoreDriver = "sqlite"
	StoreBlob   StoreDriver = "blob"
)

type Config struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`

	Agent AgentConfig `yaml:"agent"`
	Store StoreConfig `yaml:"store"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`
}

type AgentConfig struct {
	MaxSteps      int    `yaml:"max_steps"`
	HistoryWindow int    `yaml:"history_window"`
	Instructions  string `yaml:"instructions"`
}

type StoreConfig struct {
	Driver StoreDriver `yaml:"driver"`
	// Path is the SQLite database file.
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
	// URL is the afs base URL of the blob store.
	URL string `yaml:"url"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

func Default() Config {
	return Config{
		Model:       defaultModel,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Timeout:     defaultModelTimeout,
		Agent: AgentConfig{
			MaxSteps:      defaultMaxSteps,
			HistoryWindow: defaultHistoryWindow,
		},
		Store: StoreConfig{
			Driver: StoreMemory,
			Table:  defaultSQLiteTable,
		},
		HTTP: HTTPConfig{
			Addr:            defaultHTTPAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML (or JSON) file at path over the defaults, then
// applies FORMCHAT_* environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}
	setString("FORMCHAT_API_KEY", &c.APIKey)
	if c.APIKey == "" {
		setString("OPENAI_API_KEY", &c.APIKey)
	}
	setString("FORMCHAT_BASE_URL", &c.BaseURL)
	setString("FORMCHAT_MODEL", &c.Model)
	setString("FORMCHAT_HTTP_ADDR", &c.HTTP.Addr)
	setString("FORMCHAT_STORE_PATH", &c.Store.Path)
	setString("FORMCHAT_STORE_URL", &c.Store.URL)
	setString("FORMCHAT_LOG_LEVEL", &c.Log.Level)
	if v := strings.TrimSpace(os.Getenv("FORMCHAT_STORE_DRIVER")); v != "" {
		c.Store.Driver = StoreDriver(v)
	}
	if v := strings.TrimSpace(os.Getenv("FORMCHAT_MAX_STEPS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse FORMCHAT_MAX_STEPS: %w", err)
		}
		c.Agent.MaxSteps = n
	}
	if v := strings.TrimSpace(os.Getenv("FORMCHAT_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse FORMCHAT_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("validate config: model is required")
	}
	if c.Timeout <= 0 {
		return errors.New("validate config: timeout must be > 0")
	}
	if c.Agent.MaxSteps <= 0 {
		return errors.New("validate config: agent.max_steps must be > 0")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			return errors.New("validate config: sqlite store requires store.path")
		}
	case StoreBlob:
		if strings.TrimSpace(c.Store.URL) == "" {
			return errors.New("validate config: blob store requires store.url")
		}
	default:
		return fmt.Errorf("validate config: unsupported store.driver %q (allowed: %q, %q, %q)",
			c.Store.Driver, StoreMemory, StoreSQLite, StoreBlob)
	}
	return nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("validate config: log.level: %w", err)
	}
	return level, nil
}
